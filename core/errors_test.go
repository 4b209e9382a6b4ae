package core

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestValidationError_FieldMap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want map[string]string
	}{
		{name: "no fields", err: NewValidationError(errors.New("nope"))},
		{
			name: "fields flattened",
			err: NewValidationError(nil,
				FieldError{Field: "email", Error: "this field is required"},
				FieldError{Field: "role", Error: "invalid role"},
			),
			want: map[string]string{"email": "this field is required", "role": "invalid role"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vErr, ok := tt.err.(*ValidationError)
			if !ok {
				t.Fatalf("error = %T; want *ValidationError", tt.err)
			}
			if got := vErr.FieldMap(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FieldMap() = %v; want %v", got, tt.want)
			}
		})
	}
}
