package auth

import "golang.org/x/crypto/bcrypt"

func init() {
	passwordCost = bcrypt.MinCost
}

// SetPasswordCost swaps the hashing cost for the duration of a test
func SetPasswordCost(cost int) (restore func()) {
	prev := passwordCost
	passwordCost = cost
	return func() { passwordCost = prev }
}
