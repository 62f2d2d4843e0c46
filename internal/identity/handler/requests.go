package handler

import (
	dErrors "parsid/pkg/domain-errors"
)

// Upper bounds on raw input, checked before any validator runs.
const (
	maxHandleInputBytes   = 256
	maxPasswordInputBytes = 1024
)

type SubmitHandleRequest struct {
	Handle string `json:"handle"`
}

func (r *SubmitHandleRequest) Validate() error {
	if len(r.Handle) > maxHandleInputBytes {
		return dErrors.New(dErrors.CodeBadRequest, "handle input too large")
	}
	return nil
}

// SubmitSecurityRequest carries both passwords. DeadManDays is optional and
// keeps the current value when omitted.
type SubmitSecurityRequest struct {
	NormalPassword string `json:"normal_password"`
	DuressPassword string `json:"duress_password"`
	DeadManDays    *int   `json:"dead_man_days,omitempty"`
}

func (r *SubmitSecurityRequest) Validate() error {
	if len(r.NormalPassword) > maxPasswordInputBytes || len(r.DuressPassword) > maxPasswordInputBytes {
		return dErrors.New(dErrors.CodeBadRequest, "password input too large")
	}
	return nil
}
