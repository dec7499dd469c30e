package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greendrake/po/internal/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		StorageBackend:       backend,
		StorageKey:           "savedPurchaseOrders",
		StorageFile:          filepath.Join(t.TempDir(), "po-store.json"),
		DefaultPaymentTerms:  "Cash",
		DefaultDeliveryTerms: "Your location",
		DefaultUnit:          "EA",
		LogLevel:             "info",
	}
}

func bootstrap(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	rt, err := Bootstrap(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func runShell(t *testing.T, rt *Runtime, script string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, NewShell(rt.Session, strings.NewReader(script), &out).Run(context.Background()))
	return out.String()
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud")
	assert.ErrorContains(t, err, "LOG_LEVEL")
}

func TestBootstrap_UnsupportedBackend(t *testing.T) {
	_, err := Bootstrap(context.Background(), testConfig(t, "floppy"), zap.NewNop())
	assert.ErrorContains(t, err, "unsupported storage backend")
}

func TestShell_EditAndSave(t *testing.T) {
	rt := bootstrap(t, testConfig(t, config.BackendMemory))
	po := rt.Session.Snapshot().PoNumber

	out := runShell(t, rt, strings.Join([]string{
		"supplier Acme Trading",
		"add",
		"set 1 description Widget",
		"set 1 qty 2",
		"set 1 price 50",
		"ctax on",
		"show",
		"save",
		"save",
		"list",
		"quit",
	}, "\n")+"\n")

	assert.Contains(t, out, "Subtotal: 100.00")
	assert.Contains(t, out, "VAT (14%): 14.00")
	assert.Contains(t, out, "Commercial tax (1%): -1.00")
	assert.Contains(t, out, "Total: 113.00")
	assert.Contains(t, out, "Purchase Order "+po+" saved successfully!")
	assert.Contains(t, out, "Purchase Order "+po+" updated successfully!")
	assert.Contains(t, out, "Acme Trading")

	saved := rt.Store.List()
	require.Len(t, saved, 1)
	assert.Equal(t, "Widget", saved[0].Items[0].Description)
	assert.True(t, saved[0].ApplyCommercialTax)
}

func TestShell_DeleteAsksFirst(t *testing.T) {
	rt := bootstrap(t, testConfig(t, config.BackendMemory))
	po := rt.Session.Snapshot().PoNumber
	rt.Session.Save(context.Background())

	out := runShell(t, rt, "delete "+po+"\nn\n")
	assert.Contains(t, out, "Are you sure you want to delete PO "+po+"?")
	assert.Contains(t, out, "Delete cancelled.")
	assert.Equal(t, 1, rt.Store.Len())

	out = runShell(t, rt, "delete "+po+"\nyes\n")
	assert.Contains(t, out, "has been deleted.")
	assert.Equal(t, 0, rt.Store.Len())

	out = runShell(t, rt, "delete "+po+"\n")
	assert.Contains(t, out, "Purchase Order "+po+" not found.")
	assert.NotContains(t, out, "Are you sure")
}

func TestShell_NewOrderAndErrors(t *testing.T) {
	rt := bootstrap(t, testConfig(t, config.BackendMemory))

	out := runShell(t, rt, "new\nrm 5\nset x qty 1\nset 1 colour red\ninclusive maybe\nfrobnicate\nload PO # 99999-2000\n")
	assert.Contains(t, out, "New purchase order created. Ready to edit.")
	assert.Contains(t, out, "error: no row 5")
	assert.Contains(t, out, `error: invalid row "x"`)
	assert.Contains(t, out, `error: unknown field "colour"`)
	assert.Contains(t, out, "error: expected on or off")
	assert.Contains(t, out, `error: unknown command "frobnicate"`)
	assert.Contains(t, out, "Purchase Order PO # 99999-2000 not found.")

	st := rt.Session.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "EA", st.Items[0].Unit)
	assert.Equal(t, "Cash", st.PaymentTerms)
	assert.Equal(t, "Your location", st.DeliveryTerms)
}

func TestShell_NonFiniteAndHugeAmounts(t *testing.T) {
	rt := bootstrap(t, testConfig(t, config.BackendMemory))

	var out string
	require.NotPanics(t, func() {
		out = runShell(t, rt, "add\nset 1 qty NaN\nset 1 price Inf\nshow\n")
	})
	st := rt.Session.Snapshot()
	assert.Equal(t, 0.0, st.Items[0].Quantity)
	assert.Equal(t, 0.0, st.Items[0].Price)
	assert.Contains(t, out, "Total: 0.00")

	require.NotPanics(t, func() {
		out = runShell(t, rt, "set 1 qty 1e200\nset 1 price 1e200\nshow\n")
	})
	assert.Contains(t, out, "Total: +Inf")
}

func TestFileBackend_SurvivesRestart(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)

	first := bootstrap(t, cfg)
	first.Session.SetSupplier("Acme")
	saved := first.Session.Save(context.Background())
	require.True(t, saved.Created())

	second := bootstrap(t, cfg)
	assert.Equal(t, 1, second.Store.Len())
	assert.Equal(t, 2, second.Session.Snapshot().PoNumberCounter)

	var out bytes.Buffer
	require.NoError(t, PrintOrderTotals(&out, second, saved.PoNumber))
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "Total: 0.00")

	assert.Error(t, PrintOrderTotals(&out, second, "PO # 00042-2024"))
	assert.Error(t, PrintOrderTotals(&out, second, "not a number"))
}

func TestApp_ListCommand(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	rt := bootstrap(t, cfg)
	rt.Session.SetSupplier("Globex")
	rt.Session.Save(context.Background())

	// Flags are applied through the environment; t.Setenv restores it afterwards.
	t.Setenv("STORAGE_KEY", cfg.StorageKey)
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("STORAGE_FILE", "")
	t.Setenv("LOG_LEVEL", "")
	var out bytes.Buffer
	app := NewApp(strings.NewReader(""), &out)
	err := app.Run([]string{"po", "--backend", "file", "--storage-file", cfg.StorageFile, "--log-level", "error", "list"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Globex")
	assert.Contains(t, out.String(), "PO Number")
}
