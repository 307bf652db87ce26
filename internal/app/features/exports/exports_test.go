package exports_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/features/exports"
	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/dalemusser/stratacrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, time.October, 18, 10, 30, 0, 0, time.UTC)

type capture struct {
	filter interface{}
}

func sampleLeads(c *capture) *testutil.FakeCollection {
	return &testutil.FakeCollection{
		CollName: "acme_leads",
		FindFn: func(filter interface{}) ([]interface{}, error) {
			if c != nil {
				c.filter = filter
			}
			return []interface{}{
				bson.M{"_id": primitive.NewObjectID(), "name": "Ada Lovelace", "company": "Analytical Engines",
					"email": "ada@example.com", "value": 1500.5, "stage": "Closed", "owner": "emp1",
					"createdAt": fixedNow.Add(-48 * time.Hour)},
				bson.M{"_id": primitive.NewObjectID(), "name": "Grace Hopper", "company": "Navy",
					"value": 0.0, "stage": "Contacted", "createdAt": fixedNow.Add(-24 * time.Hour)},
			}, nil
		},
	}
}

func newService(t *testing.T, res testutil.StaticResolver, retention time.Duration) *exports.Service {
	t.Helper()
	svc, err := exports.New(res, exports.Config{
		Dir:       t.TempDir(),
		BaseURL:   "https://crm.example.com/",
		Retention: retention,
		Location:  time.UTC,
	}, zap.NewNop())
	require.NoError(t, err)
	svc.Now = func() time.Time { return fixedNow }
	t.Cleanup(svc.Stop)
	return svc
}

func collectionsWith(leads *testutil.FakeCollection) testutil.StaticResolver {
	cols := testutil.FakeCollections("acme")
	cols.Leads = leads
	cols.Employees = &testutil.FakeCollection{
		CollName: "acme_employees",
		FindFn: func(interface{}) ([]interface{}, error) {
			return []interface{}{bson.M{"_id": "emp1", "name": "Dana Scully"}}, nil
		},
	}
	return testutil.StaticResolver{Cols: cols}
}

func TestFileName(t *testing.T) {
	name := exports.FileName("acme", "user-1", fixedNow, "pdf")
	assert.Regexp(t, regexp.MustCompile(`^leads_acme_user-1_20251018103000_[0-9a-f]{8}\.pdf$`), name)

	name = exports.FileName("ac me/../x", "", fixedNow, "xlsx")
	assert.Regexp(t, regexp.MustCompile(`^leads_acmex_unknown_20251018103000_[0-9a-f]{8}\.xlsx$`), name)

	assert.NotEqual(t, exports.FileName("a", "b", fixedNow, "pdf"), exports.FileName("a", "b", fixedNow, "pdf"))
}

func TestExportPDF(t *testing.T) {
	var c capture
	svc := newService(t, collectionsWith(sampleLeads(&c)), time.Hour)

	res, err := svc.ExportPDF(context.Background(), "acme", "u1", leadqueries.ExportFilter{Search: "ada"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.RecordCount)
	assert.Equal(t, "https://crm.example.com/temp/exports/"+res.FileName, res.URL)
	assert.Equal(t, filepath.Join(svc.Dir(), res.FileName), res.Path)

	b, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")), "expected a PDF file")
	assert.Equal(t, 1, svc.Pending())

	filter, ok := c.filter.(bson.M)
	require.True(t, ok)
	assert.Equal(t, "acme", filter["companyId"])
	assert.Equal(t, bson.M{"$ne": true}, filter["isDeleted"])
	assert.Len(t, filter["$or"], 3)
}

func TestExportExcel(t *testing.T) {
	svc := newService(t, collectionsWith(sampleLeads(nil)), time.Hour)

	res, err := svc.ExportExcel(context.Background(), "acme", "u1", leadqueries.ExportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordCount)

	f, err := excelize.OpenFile(res.Path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Owner", rows[0][8])
	assert.Equal(t, "Ada Lovelace", rows[1][0])
	assert.Equal(t, "Dana Scully", rows[1][8], "owner id resolved to a name")
	assert.Equal(t, "2025-10-16", rows[1][9])
	assert.Equal(t, leadqueries.NotAvailable, rows[2][2], "missing email shows placeholder")
	assert.Equal(t, leadqueries.NotAvailable, rows[2][8], "missing owner shows placeholder")
}

func TestExport_ResolverFailure(t *testing.T) {
	svc := newService(t, testutil.StaticResolver{Err: errors.New("no such tenant")}, time.Hour)

	_, err := svc.ExportPDF(context.Background(), "ghost", "u1", leadqueries.ExportFilter{})
	assert.Error(t, err)
}

func TestExport_QueryFailureLeavesNoFile(t *testing.T) {
	svc := newService(t, collectionsWith(testutil.FailingCollection("acme_leads")), time.Hour)

	_, err := svc.ExportExcel(context.Background(), "acme", "u1", leadqueries.ExportFilter{})
	require.Error(t, err)

	entries, err := os.ReadDir(svc.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, svc.Pending())
}

func TestExport_RemovedAfterRetention(t *testing.T) {
	svc := newService(t, collectionsWith(sampleLeads(nil)), 50*time.Millisecond)

	res, err := svc.ExportPDF(context.Background(), "acme", "u1", leadqueries.ExportFilter{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := os.Stat(res.Path)
		return os.IsNotExist(err) && svc.Pending() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweep(t *testing.T) {
	svc := newService(t, collectionsWith(sampleLeads(nil)), time.Hour)
	dir := svc.Dir()

	old := filepath.Join(dir, "leads_acme_u1_20250101000000_deadbeef.pdf")
	fresh := filepath.Join(dir, "leads_acme_u1_20251018100000_cafebabe.pdf")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.Chtimes(old, fixedNow.Add(-3*time.Hour), fixedNow.Add(-3*time.Hour)))
	require.NoError(t, os.Chtimes(fresh, fixedNow.Add(-time.Minute), fixedNow.Add(-time.Minute)))
	require.NoError(t, os.Chtimes(other, fixedNow.Add(-3*time.Hour), fixedNow.Add(-3*time.Hour)))

	n, err := svc.Sweep(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}
