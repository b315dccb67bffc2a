package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Priority string `validate:"omitempty,oneof=low medium high"`
}

func TestStruct(t *testing.T) {
	ok := signup{Name: "Bo", Email: "b@x.com", Password: "abcdef"}
	assert.NoError(t, Struct(ok))

	cases := []struct {
		name string
		in   signup
		want string
	}{
		{"missing name", signup{Email: "b@x.com", Password: "abcdef"}, "Name is required"},
		{"bad email", signup{Name: "Bo", Email: "nope", Password: "abcdef"}, "Please provide a valid email"},
		{"short password", signup{Name: "Bo", Email: "b@x.com", Password: "abc"}, "Password must be at least 6 characters"},
		{"bad priority", signup{Name: "Bo", Email: "b@x.com", Password: "abcdef", Priority: "urgent"}, "Priority must be one of: low medium high"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			assert.EqualError(t, err, tc.want)
		})
	}
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("alice@example.com"))
	assert.False(t, Email("alice"))
	assert.False(t, Email(""))
}
