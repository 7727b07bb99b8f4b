package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-quickcart/internal/orders"
	"github.com/ariefcatur/go-quickcart/internal/session"
)

type UI struct {
	s   *session.Session
	in  *bufio.Reader
	out io.Writer

	lines chan string
	done  <-chan struct{}
	eof   bool // input ended or the context was cancelled
}

func NewUI(s *session.Session, in io.Reader, out io.Writer) *UI {
	return &UI{s: s, in: bufio.NewReader(in), out: out, lines: make(chan string)}
}

// Run loops over the menus until the user exits, input ends or ctx is
// cancelled. Cancelling ctx abandons a half-entered action.
func (ui *UI) Run(ctx context.Context) {
	ui.done = ctx.Done()
	go ui.readLines()

	for !ui.eof && ctx.Err() == nil {
		id, loggedIn := ui.s.Current()
		if !loggedIn {
			if !ui.mainMenu(ctx) {
				return
			}
			continue
		}
		switch id.Role {
		case orders.RoleAdmin:
			ui.adminMenu(ctx)
		case orders.RoleCustomer:
			ui.customerMenu(ctx)
		case orders.RoleRider:
			ui.riderMenu(ctx)
		}
	}
}

func (ui *UI) mainMenu(ctx context.Context) bool {
	fmt.Fprintln(ui.out, "\nMain Menu:")
	fmt.Fprintln(ui.out, "1. Register")
	fmt.Fprintln(ui.out, "2. Login")
	fmt.Fprintln(ui.out, "3. Exit")
	switch ui.prompt("Enter choice: ") {
	case "1":
		name := ui.prompt("Username: ")
		pass := ui.prompt("Password: ")
		role := ui.prompt("Role (Customer/Rider/Admin): ")
		if ui.eof {
			return false
		}
		if id, err := ui.s.Register(ctx, name, pass, role); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "%s registered successfully.\n", id.Role)
		}
	case "2":
		name := ui.prompt("Username: ")
		pass := ui.prompt("Password: ")
		if ui.eof {
			return false
		}
		if id, err := ui.s.Login(name, pass); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "Logged in as %s (%s).\n", id.Username, id.Role)
		}
	case "3":
		fmt.Fprintln(ui.out, "Exiting...")
		return false
	default:
		if !ui.eof {
			fmt.Fprintln(ui.out, "Invalid choice.")
		}
	}
	return !ui.eof
}

func (ui *UI) adminMenu(ctx context.Context) {
	fmt.Fprintln(ui.out, "\nAdmin Menu:")
	fmt.Fprintln(ui.out, "1. Add Product")
	fmt.Fprintln(ui.out, "2. Restock Product")
	fmt.Fprintln(ui.out, "3. View All Orders")
	fmt.Fprintln(ui.out, "4. Logout")
	switch ui.prompt("Enter choice: ") {
	case "1":
		name := ui.prompt("Product Name: ")
		price, err := decimal.NewFromString(ui.prompt("Price: "))
		if err != nil || ui.eof {
			ui.badNumber()
			return
		}
		stock, ok := ui.promptInt("Stock: ")
		if !ok {
			return
		}
		if p, err := ui.s.AddProduct(ctx, name, price, stock); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "Product '%s' added with ID %d.\n", p.Name, p.ID)
		}
	case "2":
		pid, ok := ui.promptInt("Product ID: ")
		if !ok {
			return
		}
		qty, ok := ui.promptInt("Quantity to restock: ")
		if !ok {
			return
		}
		if p, err := ui.s.RestockProduct(ctx, pid, qty); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "Restocked '%s' by %d. New stock: %d\n", p.Name, qty, p.Stock())
		}
	case "3":
		ui.listOrders(ui.s.AllOrders())
	case "4":
		_ = ui.s.Logout()
	default:
		ui.invalidChoice()
	}
}

func (ui *UI) customerMenu(ctx context.Context) {
	fmt.Fprintln(ui.out, "\nCustomer Menu:")
	fmt.Fprintln(ui.out, "1. Browse Products")
	fmt.Fprintln(ui.out, "2. Place Order")
	fmt.Fprintln(ui.out, "3. View Order History")
	fmt.Fprintln(ui.out, "4. Logout")
	switch ui.prompt("Enter choice: ") {
	case "1":
		ps := ui.s.BrowseProducts()
		if len(ps) == 0 {
			fmt.Fprintln(ui.out, "No products available.")
		}
		for _, p := range ps {
			fmt.Fprintln(ui.out, p.String())
		}
	case "2":
		pid, ok := ui.promptInt("Product ID: ")
		if !ok {
			return
		}
		qty, ok := ui.promptInt("Quantity: ")
		if !ok {
			return
		}
		if o, err := ui.s.PlaceOrder(ctx, pid, qty); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "Order placed: %s\n", ui.describe(o))
		}
	case "3":
		ui.listOrders(ui.s.OrderHistory())
	case "4":
		_ = ui.s.Logout()
	default:
		ui.invalidChoice()
	}
}

func (ui *UI) riderMenu(ctx context.Context) {
	fmt.Fprintln(ui.out, "\nRider Menu:")
	fmt.Fprintln(ui.out, "1. View Pending Orders")
	fmt.Fprintln(ui.out, "2. Accept Order")
	fmt.Fprintln(ui.out, "3. Update Order Status")
	fmt.Fprintln(ui.out, "4. View Assigned Orders")
	fmt.Fprintln(ui.out, "5. Logout")
	switch ui.prompt("Enter choice: ") {
	case "1":
		ui.listOrders(ui.s.PendingOrders())
	case "2":
		oid, ok := ui.promptInt("Order ID: ")
		if !ok {
			return
		}
		if _, err := ui.s.AcceptOrder(ctx, oid); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "Order %d accepted.\n", oid)
		}
	case "3":
		oid, ok := ui.promptInt("Order ID: ")
		if !ok {
			return
		}
		target := ui.prompt("Status (Accepted/Delivered): ")
		if ui.eof {
			return
		}
		if o, err := ui.s.UpdateOrderStatus(ctx, oid, target); err != nil {
			ui.fail(err)
		} else {
			fmt.Fprintf(ui.out, "Order %d status updated to %s.\n", oid, o.Status())
		}
	case "4":
		ui.listOrders(ui.s.AssignedOrders())
	case "5":
		_ = ui.s.Logout()
	default:
		ui.invalidChoice()
	}
}

func (ui *UI) listOrders(list []orders.Order, err error) {
	if err != nil {
		ui.fail(err)
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(ui.out, "No orders yet.")
		return
	}
	for _, o := range list {
		fmt.Fprintln(ui.out, ui.describe(o))
	}
}

func (ui *UI) describe(o orders.Order) string {
	name := fmt.Sprintf("#%d", o.ProductID)
	if p, ok := ui.s.Ledger().Product(o.ProductID); ok {
		name = p.Name
	}
	rider := o.Rider()
	if rider == "" {
		rider = "Unassigned"
	}
	return fmt.Sprintf("Order ID: %d | Customer: %s | Product: %s | Qty: %d | Status: %s | Rider: %s",
		o.ID, o.Customer, name, o.Quantity, o.Status(), rider)
}

func (ui *UI) fail(err error) {
	fmt.Fprintln(ui.out, message(err))
}

// message turns a failed operation into the line shown to the user.
func message(err error) string {
	switch {
	case errors.Is(err, session.ErrPersist):
		return "Saved in memory, but writing data failed: " + err.Error()
	case errors.Is(err, orders.ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, orders.ErrDuplicateUsername):
		return "Username already exists."
	case errors.Is(err, orders.ErrUnknownRole):
		return "Invalid role."
	case errors.Is(err, orders.ErrInvalidCredentials):
		return "Invalid credentials."
	case errors.Is(err, orders.ErrUnknownProduct):
		return "Invalid product ID."
	case errors.Is(err, orders.ErrUnknownOrder):
		return "Invalid order ID."
	case errors.Is(err, orders.ErrInsufficientStock):
		return "Insufficient stock."
	case errors.Is(err, orders.ErrOrderNotPending):
		return "Order is not pending."
	case errors.Is(err, orders.ErrNotAssignedRider):
		return "You are not assigned to this order."
	case errors.Is(err, orders.ErrIllegalTransition):
		return "Invalid transition: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

// readLines feeds ui.lines until input ends or Run's context is done.
func (ui *UI) readLines() {
	defer close(ui.lines)
	for {
		line, err := ui.in.ReadString('\n')
		if line != "" {
			select {
			case ui.lines <- line:
			case <-ui.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// prompt returns "" and marks the UI finished once input ends or the context
// is cancelled, even while waiting for the user.
func (ui *UI) prompt(label string) string {
	if ui.eof {
		return ""
	}
	select {
	case <-ui.done:
		ui.eof = true
		return ""
	default:
	}
	fmt.Fprint(ui.out, label)
	select {
	case <-ui.done:
		ui.eof = true
		return ""
	case line, ok := <-ui.lines:
		if !ok {
			ui.eof = true
			return ""
		}
		return strings.TrimSpace(line)
	}
}

func (ui *UI) promptInt(label string) (int, bool) {
	n, err := strconv.Atoi(ui.prompt(label))
	if err != nil || ui.eof {
		ui.badNumber()
		return 0, false
	}
	return n, true
}

func (ui *UI) badNumber() {
	if !ui.eof {
		fmt.Fprintln(ui.out, "Invalid input. Please enter valid numbers where required.")
	}
}

func (ui *UI) invalidChoice() {
	if !ui.eof {
		fmt.Fprintln(ui.out, "Invalid choice.")
	}
}
