package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-quickcart/internal/filestore"
	"github.com/ariefcatur/go-quickcart/internal/session"
)

func script(lines ...string) string { return strings.Join(lines, "\n") + "\n" }

func run(t *testing.T, dir, input string) string {
	t.Helper()
	store, err := filestore.Open(dir)
	require.NoError(t, err)
	s, err := session.Open(context.Background(), store)
	require.NoError(t, err)
	var out bytes.Buffer
	NewUI(s, strings.NewReader(input), &out).Run(context.Background())
	return out.String()
}

func TestUI_WholeLifecycleAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	out := run(t, dir, script(
		"1", "ada", "pw", "Admin",
		"1", "carol", "pw", "customer",
		"1", "rick", "pw", "Rider",
		"1", "carol", "x", "Rider",
		"2", "ada", "pw",
		"1", "Widget", "10.0", "5",
		"2", "1", "abc",
		"4",
		"3",
	))
	assert.Contains(t, out, "Admin registered successfully.")
	assert.Contains(t, out, "Customer registered successfully.")
	assert.Contains(t, out, "Username already exists.")
	assert.Contains(t, out, "Logged in as ada (Admin).")
	assert.Contains(t, out, "Product 'Widget' added with ID 1.")
	assert.Contains(t, out, "Invalid input. Please enter valid numbers where required.")
	assert.Contains(t, out, "Exiting...")

	// second run reads the files written by the first
	out = run(t, dir, script(
		"2", "carol", "pw",
		"1",
		"2", "1", "9",
		"2", "1", "3",
		"4",
		"2", "rick", "pw",
		"1",
		"2", "1",
		"3", "1", "delivered",
		"3", "1", "Accepted",
		"4",
		"5",
		"3",
	))
	assert.Contains(t, out, "[1] Widget - $10.00 | Stock: 5")
	assert.Contains(t, out, "Insufficient stock.")
	assert.Contains(t, out, "Order placed: Order ID: 1 | Customer: carol | Product: Widget | Qty: 3 | Status: PENDING | Rider: Unassigned")
	assert.Contains(t, out, "Order 1 accepted.")
	assert.Contains(t, out, "Order 1 status updated to DELIVERED.")
	assert.Contains(t, out, "Invalid transition")
	assert.Contains(t, out, "Order ID: 1 | Customer: carol | Product: Widget | Qty: 3 | Status: DELIVERED | Rider: rick")

	out = run(t, dir, script(
		"2", "ada", "pw",
		"2", "1", "4",
		"3",
		"4",
		"3",
	))
	assert.Contains(t, out, "Restocked 'Widget' by 4. New stock: 6")
	assert.Contains(t, out, "Status: DELIVERED | Rider: rick")
}

func TestUI_BadLoginAndEOF(t *testing.T) {
	out := run(t, t.TempDir(), script("2", "nobody", "pw", "7"))
	assert.Contains(t, out, "Invalid credentials.")
	assert.Contains(t, out, "Invalid choice.")
	assert.NotContains(t, out, "Exiting...")
}

func TestUI_RiderCannotTouchOthersOrders(t *testing.T) {
	dir := t.TempDir()
	out := run(t, dir, script(
		"1", "ada", "pw", "Admin",
		"1", "carol", "pw", "Customer",
		"1", "rick", "pw", "Rider",
		"1", "rita", "pw", "Rider",
		"2", "ada", "pw", "1", "Widget", "2.5", "1", "4",
		"2", "carol", "pw", "2", "1", "1", "4",
		"2", "rick", "pw", "2", "1", "5",
		"2", "rita", "pw",
		"2", "1",
		"3", "1", "Delivered",
		"4",
		"5",
		"3",
	))
	assert.Contains(t, out, "Order is not pending.")
	assert.Contains(t, out, "You are not assigned to this order.")
	assert.Contains(t, out, "No orders yet.")
}

func TestUI_CancelAbandonsActionInProgress(t *testing.T) {
	store, err := filestore.Open(t.TempDir())
	require.NoError(t, err)
	s, err := session.Open(context.Background(), store)
	require.NoError(t, err)

	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewUI(s, pr, &out).Run(ctx)
	}()

	// start registering, then stop at the password prompt
	_, err = io.WriteString(pw, "1\nada\n")
	require.NoError(t, err)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.NotContains(t, out.String(), "registered successfully")
	assert.NotContains(t, out.String(), "Invalid")
	_, err = s.Login("ada", "")
	assert.Error(t, err)
}

func TestUI_CancelledBeforeStart(t *testing.T) {
	store, err := filestore.Open(t.TempDir())
	require.NoError(t, err)
	s, err := session.Open(context.Background(), store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	NewUI(s, strings.NewReader(script("1", "ada", "pw", "Admin")), &out).Run(ctx)
	assert.Empty(t, out.String())
}
