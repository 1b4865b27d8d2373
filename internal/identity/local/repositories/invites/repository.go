package invites

import "context"

type Repository interface {
	// Redeem marks code as used by userID. It reports false when the code
	// does not exist, was already used or belongs to userID.
	Redeem(ctx context.Context, code, userID string) (bool, error)
}
