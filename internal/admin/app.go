package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/flagx"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/services"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage: admin <create|set-password|deactivate|activate> -email <address> [-role ROLE] [-first NAME] [-last NAME]")

// Accounts is the account maintenance the tool drives.
type Accounts interface {
	CreateUser(ctx context.Context, in services.RegisterInput, role models.Role) (*models.User, error)
	SetPassword(ctx context.Context, email, password string) error
	SetActive(ctx context.Context, email string, active bool) error
}

type App struct {
	accounts Accounts
	out      io.Writer
}

func NewApp(accounts Accounts, out io.Writer) *App {
	return &App{accounts: accounts, out: out}
}

type options struct {
	email string
	role  string
	first string
	last  string
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.email, "email", "", "account email")
	fs.StringVar(&o.role, "role", string(models.RoleAdmin), "role for create")
	fs.StringVar(&o.first, "first", "Admin", "first name for create")
	fs.StringVar(&o.last, "last", "User", "last name for create")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-role", "-first", "-last"})); err != nil {
		return o, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	o.email = strings.ToLower(strings.TrimSpace(o.email))
	if o.email == "" {
		return o, ErrUsage
	}
	return o, nil
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd := args[0]

	opts, err := parseOptions(args[1:])
	if err != nil {
		return err
	}

	switch cmd {
	case "create":
		return a.create(ctx, opts)
	case "set-password":
		return a.setPassword(ctx, opts)
	case "deactivate":
		return a.setActive(ctx, opts, false)
	case "activate":
		return a.setActive(ctx, opts, true)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) create(ctx context.Context, o options) error {
	role, err := models.ParseRole(o.role)
	if err != nil {
		return err
	}

	pw, err := a.newPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	u, err := a.accounts.CreateUser(ctx, services.RegisterInput{
		Email:     o.email,
		Password:  string(pw),
		FirstName: o.first,
		LastName:  o.last,
	}, role)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(a.out, "Created %s account %s (%s)\n", u.Role, u.Email, u.ID)
	return nil
}

func (a *App) setPassword(ctx context.Context, o options) error {
	pw, err := a.newPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.accounts.SetPassword(ctx, o.email, string(pw)); err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Password updated for %s\n", o.email)
	return nil
}

func (a *App) setActive(ctx context.Context, o options, active bool) error {
	if err := a.accounts.SetActive(ctx, o.email, active); err != nil {
		return describe(err)
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(a.out, "Account %s %s\n", o.email, state)
	return nil
}

// newPassword prompts twice and returns the password when both entries
// agree.
func (a *App) newPassword() ([]byte, error) {
	pw, err := GetPassword(a.out, "New password")
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if subtle.ConstantTimeCompare(pw, confirm) != 1 {
		common.WipeByteArray(pw)
		return nil, errors.New("passwords do not match")
	}
	return pw, nil
}

// describe turns service errors into operator-readable messages.
func describe(err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		lines := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			lines = append(lines, f.Field+": "+f.Message)
		}
		return fmt.Errorf("input rejected:\n  - %s", strings.Join(lines, "\n  - "))
	case errors.Is(err, common.ErrorNotFound):
		return errors.New("no account with that email")
	case errors.Is(err, common.ErrorAlreadyExists):
		return errors.New("an account with that email already exists")
	}
	return err
}
