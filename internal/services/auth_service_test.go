package services

import (
	"context"
	"testing"

	"voucher-go/internal/config"
)

func newTestAuthService() AuthService {
	return NewMockAuthService(config.AuthConfig{Accounts: []config.MockAccount{
		{ID: "1", Email: "publisher@example.com", Password: "password123", Name: "Pub", IsPublisher: true},
		{ID: "2", Email: "user@example.com", Password: "hunter2", Name: "User"},
	}})
}

func TestAuthenticateSuccess(t *testing.T) {
	svc := newTestAuthService()

	res := svc.Authenticate(context.Background(), "  Publisher@Example.com ", "password123")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.User == nil || res.User.ID != "1" || !res.User.IsPublisher {
		t.Errorf("unexpected user: %+v", res.User)
	}
	if res.Error != "" {
		t.Errorf("Error = %q on success", res.Error)
	}

	res = svc.Authenticate(context.Background(), "user@example.com", "hunter2")
	if !res.Success || res.User.IsPublisher {
		t.Errorf("unexpected result for non-publisher: %+v", res)
	}
}

func TestAuthenticateFailure(t *testing.T) {
	svc := newTestAuthService()

	cases := []struct {
		name, email, password, want string
	}{
		{"wrong password", "user@example.com", "nope", AuthErrInvalidCredentials},
		{"unknown email", "ghost@example.com", "hunter2", AuthErrInvalidCredentials},
		{"empty email", "", "hunter2", AuthErrMissingCredentials},
		{"empty password", "user@example.com", "", AuthErrMissingCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := svc.Authenticate(context.Background(), tc.email, tc.password)
			if res.Success || res.User != nil {
				t.Fatalf("expected failure, got %+v", res)
			}
			if res.Error != tc.want {
				t.Errorf("Error = %q, want %q", res.Error, tc.want)
			}
		})
	}
}
