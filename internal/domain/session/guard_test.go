package session

import (
	"context"
	"testing"

	"hrmgate/internal/domain/auth"
)

func TestGuardEvaluate(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	guard := NewGuard(auth.NewAuthorizer(auth.DefaultPolicy()))

	if got := guard.Evaluate(New(NewMemoryStorage(), svc), "/employees", ""); got != DecisionLoading {
		t.Fatalf("unresolved store = %s, want loading", got)
	}

	anon := Open(ctx, NewMemoryStorage(), svc)
	if got := guard.Evaluate(anon, "/employees", ""); got != DecisionUnauthenticated {
		t.Fatalf("anonymous = %s, want unauthenticated", got)
	}

	employee := Open(ctx, NewMemoryStorage(), svc)
	if _, err := employee.SignIn(ctx, "employee@example", "demo123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	tests := []struct {
		path     string
		required auth.Permission
		want     Decision
	}{
		{"/employees", "", DecisionDenied},
		{"/", "", DecisionAllowed},
		{"/attendance-reports", "", DecisionAllowed},
		{"/performance", "", DecisionDenied},
		{"/", auth.PermPerformanceReadOwn, DecisionAllowed},
		{"/", auth.PermPayrollAccess, DecisionDenied},
	}
	for _, tc := range tests {
		if got := guard.Evaluate(employee, tc.path, tc.required); got != tc.want {
			t.Fatalf("employee %s (%s) = %s, want %s", tc.path, tc.required, got, tc.want)
		}
	}
}
