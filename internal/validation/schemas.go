package validation

import (
	"encoding/json"
	"reflect"
	"strings"
)

type CreateIssue struct {
	Title       string `json:"title" validate:"required,min=1,max=225"`
	Description string `json:"description" validate:"required,min=1"`
}

// PatchIssue fields are optional. AssignedToUserID distinguishes an absent
// key from an explicit null through AssigneeProvided.
type PatchIssue struct {
	Title            *string `json:"title" validate:"omitnil,min=1,max=225"`
	Description      *string `json:"description" validate:"omitnil,min=1,max=65535"`
	AssignedToUserID *string `json:"assignedToUserId" validate:"omitnil,min=1,max=255"`

	AssigneeProvided bool `json:"-"`
}

func (p *PatchIssue) UnmarshalJSON(data []byte) error {
	type plain PatchIssue

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if keys == nil {
		return &json.UnmarshalTypeError{Value: "null", Type: reflect.TypeOf(*p)}
	}
	// only the assignee may be cleared with null
	for _, field := range []string{"title", "description"} {
		if raw, ok := keys[field]; ok && string(raw) == "null" {
			return &json.UnmarshalTypeError{Value: "null", Type: reflect.TypeOf(""), Field: field}
		}
	}
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}

	_, p.AssigneeProvided = keys["assignedToUserId"]
	return nil
}

type Register struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UnmarshalJSON trims the name and email so the constraints see what will be
// stored.
func (r *Register) UnmarshalJSON(data []byte) error {
	type plain Register
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return nil
}

type Login struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
