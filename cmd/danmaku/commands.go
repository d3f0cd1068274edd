package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/danmaku-system/webclient"
	"github.com/danmaku-system/webclient/pkg/auth"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"login", "sign in with username and password", login},
	{"logout", "end the current session", logout},
	{"whoami", "print the signed-in user", whoami},
	{"register", "create an account and sign in", register},
	{"update", "change email or name", update},
	{"check-username", "check whether a username is free", checkUsername},
	{"reset-password", "request a password reset email", resetPassword},
	{"confirm-reset", "set a new password from a reset link", confirmReset},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// errFailed reports a failed operation whose message was already printed
var errFailed = errors.New("operation failed")

func newFlags(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func report(stdout, stderr io.Writer, res auth.Result) error {
	if !res.Success {
		fmt.Fprintln(stderr, res.Error)
		for _, d := range res.Details {
			fmt.Fprintln(stderr, "  -", d)
		}
		return errFailed
	}
	if res.Message != "" {
		fmt.Fprintln(stdout, res.Message)
	}
	return nil
}

func printUser(w io.Writer, u *auth.User) {
	if u == nil {
		fmt.Fprintln(w, "not signed in")
		return
	}
	fmt.Fprintf(w, "%s <%s>\n", u.Username, u.Email)
	if name := u.FullName(); name != u.Username {
		fmt.Fprintln(w, "name:", name)
	}
	if u.IsStaff {
		fmt.Fprintln(w, "role: staff")
	}
}

func login(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("login", stderr)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	remember := fs.Bool("remember", false, "keep the session for 30 days")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(stderr, "login requires -u and -p")
		return errUsage
	}

	res := c.Store().Login(ctx, auth.Credentials{Username: *username, Password: *password, RememberMe: *remember})
	if !res.Success {
		fmt.Fprintln(stderr, res.Error)
		if res.AttemptsLeft != nil {
			fmt.Fprintf(stderr, "%d attempts left\n", *res.AttemptsLeft)
		}
		return errFailed
	}
	printUser(stdout, res.User)
	return nil
}

func logout(ctx context.Context, c *webclient.Client, _ []string, stdout, stderr io.Writer) error {
	return report(stdout, stderr, c.Store().Logout(ctx))
}

func whoami(_ context.Context, c *webclient.Client, _ []string, stdout, _ io.Writer) error {
	printUser(stdout, c.Store().User())
	return nil
}

func register(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("register", stderr)
	var reg auth.Registration
	fs.StringVar(&reg.Username, "u", "", "username")
	fs.StringVar(&reg.Email, "email", "", "email address")
	fs.StringVar(&reg.Password, "p", "", "password")
	fs.StringVar(&reg.Password2, "confirm", "", "password again")
	fs.StringVar(&reg.FirstName, "first-name", "", "first name")
	fs.StringVar(&reg.LastName, "last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res := c.Store().Register(ctx, reg)
	if err := report(stdout, stderr, res); err != nil {
		return err
	}
	printUser(stdout, res.User)
	return nil
}

func update(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("update", stderr)
	email := fs.String("email", "", "new email address")
	first := fs.String("first-name", "", "new first name")
	last := fs.String("last-name", "", "new last name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	// only flags given on the command line are sent
	var upd auth.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "email":
			upd.Email = email
		case "first-name":
			upd.FirstName = first
		case "last-name":
			upd.LastName = last
		}
	})
	if upd == (auth.ProfileUpdate{}) {
		fmt.Fprintln(stderr, "update requires at least one of -email, -first-name, -last-name")
		return errUsage
	}

	res := c.Store().UpdateProfile(ctx, upd)
	if err := report(stdout, stderr, res); err != nil {
		return err
	}
	printUser(stdout, res.User)
	return nil
}

func checkUsername(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(stderr, "usage: danmaku check-username <name>")
		return errUsage
	}

	check, err := c.Store().CheckUsername(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, check.Message)
	if !check.Available {
		return errFailed
	}
	return nil
}

func resetPassword(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("reset-password", stderr)
	email := fs.String("email", "", "account email address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return report(stdout, stderr, c.Store().RequestPasswordReset(ctx, *email))
}

func confirmReset(ctx context.Context, c *webclient.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlags("confirm-reset", stderr)
	var req auth.PasswordResetConfirm
	fs.StringVar(&req.UID, "uid", "", "uid from the reset link")
	fs.StringVar(&req.Token, "token", "", "token from the reset link")
	fs.StringVar(&req.Password, "p", "", "new password")
	fs.StringVar(&req.Password2, "confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return report(stdout, stderr, c.Store().ConfirmPasswordReset(ctx, req))
}
