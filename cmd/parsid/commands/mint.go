package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"parsid/internal/identity/mint"
	"parsid/internal/identity/models"
	"parsid/internal/identity/wizard"
	"parsid/internal/network"
	"parsid/internal/platform/logger"
	"parsid/internal/registrar/httpclient"
	"parsid/internal/session"
	id "parsid/pkg/domain"
)

type mintOptions struct {
	registrarURL string
	subject      string
	handle       string
	deadManDays  int
	timeout      time.Duration
	explorerURL  string
	logLevel     string
}

func mintCmd() *cobra.Command {
	opts := mintOptions{}
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Create an identity: handle, normal and duress passwords, check-in interval",
		Long: `Runs the identity wizard in the terminal.

Passwords are read from standard input: the normal password first, then
the duress password. On a terminal they are read without echo; piped input
is read one line per answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMint(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.registrarURL, "registrar", "http://localhost:8090", "registrar base URL")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "wallet address the identity is bound to")
	cmd.Flags().StringVar(&opts.handle, "handle", "", "handle to claim (prompted when empty)")
	cmd.Flags().IntVar(&opts.deadManDays, "dead-man-days", models.DefaultDeadManDays, "check-in interval in days (3-30)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall mint timeout")
	cmd.Flags().StringVar(&opts.explorerURL, "explorer", network.DefaultExplorerURL, "explorer base URL")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func runMint(ctx context.Context, in io.Reader, out, prompt io.Writer, opts mintOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.NewWithWriter(prompt, "text", opts.logLevel)
	ask := newPrompter(in, prompt)

	coordinator, err := mint.New(
		httpclient.New(opts.registrarURL, httpclient.WithLogger(log)),
		mint.WithLogger(log),
	)
	if err != nil {
		return err
	}
	w := wizard.New(id.NewWizardID(), opts.subject, coordinator, wizard.WithLogger(log))
	defer w.Close()

	sess, err := session.Static{Value: session.Session{Authenticated: opts.subject != "", Subject: opts.subject}}.Session(ctx)
	if err != nil {
		return err
	}
	if err := w.Start(sess); err != nil {
		return err
	}

	handle := opts.handle
	if handle == "" {
		if handle, err = ask.line("Handle: "); err != nil {
			return err
		}
	}
	if err := w.SubmitHandle(network.NormalizeHandle(handle)); err != nil {
		return err
	}

	normal, err := ask.secret("Password: ")
	if err != nil {
		return err
	}
	duress, err := ask.secret("Duress password: ")
	if err != nil {
		return err
	}
	if err := w.SubmitSecurity(normal, duress, opts.deadManDays); err != nil {
		return err
	}

	if cv, ok := w.Confirm(); ok {
		fmt.Fprintf(prompt, "Minting %s for %s (check-in every %d days, duress password set)\n",
			cv.QualifiedHandle, cv.Subject, cv.DeadManDays)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	identity, err := w.Mint(ctx)
	if err != nil {
		return err
	}

	net := network.Default()
	net.ExplorerURL = opts.explorerURL
	fmt.Fprintf(out, "Handle:     %s\n", identity.Handle())
	fmt.Fprintf(out, "ID:         %s\n", identity.IDHex())
	fmt.Fprintf(out, "Public key: %s\n", identity.PublicKeyHex())
	fmt.Fprintf(out, "DID:        %s\n", net.DID(identity.IDHex()))
	fmt.Fprintf(out, "Explorer:   %s\n", net.ExplorerLink(identity.IDHex()))
	return nil
}

// prompter reads wizard answers. Secrets skip the echo when input is a
// terminal.
type prompter struct {
	lines *bufio.Scanner
	out   io.Writer
	fd    int
	tty   bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{lines: bufio.NewScanner(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd, p.tty = int(f.Fd()), true
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.lines.Scan() {
		if err := p.lines.Err(); err != nil {
			return "", err
		}
		return "", errors.New("unexpected end of input")
	}
	return strings.TrimSuffix(p.lines.Text(), "\r"), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	secret := string(raw)
	clear(raw)
	return secret, nil
}
