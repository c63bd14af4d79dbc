// Package cli is the command-line front end. Every invocation is a separate
// process, so a remembered login is restored from storage on each run.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/findosh/ordertrack/internal/models"
	"github.com/findosh/ordertrack/internal/services/auth"
	"github.com/findosh/ordertrack/internal/services/orders"
	"github.com/findosh/ordertrack/internal/services/session"
	"github.com/findosh/ordertrack/internal/storage"
	"github.com/findosh/ordertrack/internal/validation"
)

// ErrUsage is returned for unknown commands or bad flags.
var ErrUsage = errors.New("usage error")

// App dispatches commands to the services
type App struct {
	auth     *auth.Service
	sessions *session.Manager
	orders   *orders.Service
	out      io.Writer
}

// New creates a new CLI app writing results to out
func New(authService *auth.Service, sessions *session.Manager, orderService *orders.Service, out io.Writer) *App {
	return &App{
		auth:     authService,
		sessions: sessions,
		orders:   orderService,
		out:      out,
	}
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register": {"register -username NAME -password PASS -confirm PASS", (*App).register},
	"login":    {"login -username NAME -password PASS [-remember]  (without -remember the login ends with this run)", (*App).login},
	"logout":   {"logout", (*App).logout},
	"whoami":   {"whoami", (*App).whoami},
	"list":     {"list", (*App).list},
	"show":     {"show -id ORDER_ID", (*App).show},
	"create":   {"create -number N -buyer NAME -address ADDR -phone PHONE -total AMOUNT [-due MM/DD/YYYY]", (*App).create},
	"update":   {"update -id ORDER_ID -number N -buyer NAME -address ADDR -phone PHONE -total AMOUNT [-due MM/DD/YYYY]", (*App).update},
	"delete":   {"delete -id ORDER_ID", (*App).delete},
}

// Run executes the command named by args[0]
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.printUsage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(a, ctx, args[1:])
}

func (a *App) printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: orders <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	username := fs.String("username", "", "username (at least 3 characters)")
	password := fs.String("password", "", "password (at least 6 characters)")
	confirm := fs.String("confirm", "", "password again")
	if err := parse(fs, args); err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, *username, *password, *confirm)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s created. You can now log in.\n", user.Username)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	remember := fs.Bool("remember", false, "stay logged in across runs; otherwise the login lasts for this run only")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *username == "" {
		remembered, err := a.sessions.RememberedUsername(ctx)
		if err != nil {
			return err
		}
		*username = remembered
	}

	user, err := a.auth.Login(ctx, *username, *password, *remember)
	if err != nil {
		return err
	}
	if *remember {
		fmt.Fprintf(a.out, "Logged in as %s. The login is remembered for later runs.\n", user.Username)
	} else {
		fmt.Fprintf(a.out, "Logged in as %s for this run only. Use -remember to stay logged in.\n", user.Username)
	}
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	if err := parse(a.flags("logout"), args); err != nil {
		return err
	}
	a.auth.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	if err := parse(a.flags("whoami"), args); err != nil {
		return err
	}
	user, err := a.sessions.ResolveCurrentUser(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		fmt.Fprintln(a.out, user.Username)
		return nil
	}

	fmt.Fprintln(a.out, "Not logged in.")
	if remembered, err := a.sessions.RememberedUsername(ctx); err == nil && remembered != "" {
		fmt.Fprintf(a.out, "Last remembered user: %s\n", remembered)
	}
	return nil
}

func (a *App) currentUser(ctx context.Context) (*models.User, error) {
	user, err := a.sessions.ResolveCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, orders.ErrNotAuthenticated
	}
	return user, nil
}

// ownedOrder loads an order and hides it unless user owns it.
func (a *App) ownedOrder(ctx context.Context, user *models.User, rawID string) (*models.Order, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id %q", ErrUsage, rawID)
	}
	order, err := a.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != user.ID {
		return nil, orders.ErrOrderNotFound
	}
	return order, nil
}

func (a *App) list(ctx context.Context, args []string) error {
	if err := parse(a.flags("list"), args); err != nil {
		return err
	}
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	list, err := a.orders.ListOrders(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No orders yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORDER\tDUE\tCUSTOMER\tPHONE\tTOTAL")
	for _, o := range list {
		due := o.FormattedDueDate()
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.OrderNumber, due, o.BuyerName, o.Phone, o.FormattedTotal())
	}
	return w.Flush()
}

func (a *App) show(ctx context.Context, args []string) error {
	fs := a.flags("show")
	id := fs.String("id", "", "order id")
	if err := parse(fs, args); err != nil {
		return err
	}
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	order, err := a.ownedOrder(ctx, user, *id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", order.ID)
	fmt.Fprintf(w, "Order Number:\t%s\n", order.OrderNumber)
	fmt.Fprintf(w, "Due Date:\t%s\n", order.FormattedDueDate())
	fmt.Fprintf(w, "Customer Name:\t%s\n", order.BuyerName)
	fmt.Fprintf(w, "Customer Address:\t%s\n", order.Address)
	fmt.Fprintf(w, "Customer Phone:\t%s\n", order.Phone)
	fmt.Fprintf(w, "Order Total:\t%s\n", order.FormattedTotal())
	return w.Flush()
}

// orderFlags registers the editable order fields on fs.
func orderFlags(fs *flag.FlagSet) func() (models.OrderInput, error) {
	number := fs.String("number", "", "order number")
	due := fs.String("due", "", "due date (MM/DD/YYYY or YYYY-MM-DD)")
	buyer := fs.String("buyer", "", "customer name")
	address := fs.String("address", "", "customer address")
	phone := fs.String("phone", "", "customer phone, 10 to 15 digits")
	total := fs.String("total", "", "order total")

	return func() (models.OrderInput, error) {
		dueDate, err := models.ParseDueDate(*due)
		if err != nil {
			return models.OrderInput{}, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return models.OrderInput{
			OrderNumber: *number,
			DueDate:     dueDate,
			BuyerName:   *buyer,
			Address:     *address,
			Phone:       *phone,
			Total:       *total,
		}, nil
	}
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flags("create")
	input := orderFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	in, err := input()
	if err != nil {
		return err
	}
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	order, err := a.orders.CreateOrder(ctx, user.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s saved (%s).\n", order.OrderNumber, order.ID)
	return nil
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := a.flags("update")
	id := fs.String("id", "", "order id")
	input := orderFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	in, err := input()
	if err != nil {
		return err
	}
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	order, err := a.ownedOrder(ctx, user, *id)
	if err != nil {
		return err
	}

	order, err = a.orders.UpdateOrder(ctx, order.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s updated.\n", order.OrderNumber)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	id := fs.String("id", "", "order id")
	if err := parse(fs, args); err != nil {
		return err
	}
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	order, err := a.ownedOrder(ctx, user, *id)
	if err != nil {
		return err
	}

	if err := a.orders.DeleteOrder(ctx, order.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order #%s has been deleted.\n", order.OrderNumber)
	return nil
}

// Message turns err into the text shown to the user.
func Message(err error) string {
	var verr *validation.ValidationError
	var serr *storage.StoreError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, auth.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
		return err.Error()
	case errors.Is(err, orders.ErrNotAuthenticated):
		return "Please log in first"
	case errors.Is(err, orders.ErrOrderNotFound):
		return "Order not found"
	case errors.As(err, &serr):
		return "Something went wrong. Please try again."
	default:
		return err.Error()
	}
}
