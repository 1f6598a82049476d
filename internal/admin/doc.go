// Package admin implements the Palmers account maintenance tool.
//
// It works directly against the user store and covers what the public API
// deliberately does not offer:
//   - create: add an account with any role (staff and admins included)
//   - set-password: reset a password without knowing the old one
//   - deactivate / activate: disable or re-enable an account
//
// Passwords are read from the terminal without echo and wiped from memory
// once hashed.
package admin
