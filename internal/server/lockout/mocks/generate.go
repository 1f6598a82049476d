// Package mocks holds gomock doubles for the lockout store.
//
// Regenerate after interface changes with:
//
//	go generate ./internal/server/lockout/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=store_mock.go github.com/codesleeps/palmers/internal/server/lockout Store
