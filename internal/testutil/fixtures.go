package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

// StaffID is the actor recorded on rows seeded by tests.
var StaffID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

func SeedDistrict(t *testing.T, db *sql.DB, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	if _, err := db.Exec(`INSERT INTO districts (id, name) VALUES ($1, $2)`, id, name); err != nil {
		t.Fatalf("seed district %s: %v", name, err)
	}
	return id
}

func SeedAgencyType(t *testing.T, db *sql.DB, name string, maxDebt int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO agency_types (id, name, max_debt) VALUES ($1, $2, $3)`,
		id, name, maxDebt,
	)
	if err != nil {
		t.Fatalf("seed agency type %s: %v", name, err)
	}
	return id
}

// SeedAgency inserts an active agency of a fresh type with the given
// ceiling and opening debt, in a fresh district.
func SeedAgency(t *testing.T, db *sql.DB, maxDebt, debt int64) *domain.Agency {
	t.Helper()

	typeID := SeedAgencyType(t, db, "type-"+uuid.NewString()[:8], maxDebt)
	districtID := SeedDistrict(t, db, "district-"+uuid.NewString()[:8])
	return SeedAgencyIn(t, db, typeID, districtID, debt)
}

func SeedAgencyIn(t *testing.T, db *sql.DB, typeID, districtID uuid.UUID, debt int64) *domain.Agency {
	t.Helper()

	now := time.Now().UTC()
	a := &domain.Agency{
		ID:            uuid.New(),
		Name:          "Agency " + uuid.NewString()[:8],
		Phone:         "0900000000",
		Address:       "1 Test Street",
		AgencyTypeID:  typeID,
		DistrictID:    districtID,
		CurrentDebt:   debt,
		ReceptionDate: domain.DateOf(now),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := db.Exec(
		`INSERT INTO agencies (id, name, phone, address, agency_type_id, district_id,
			current_debt, reception_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, a.Phone, a.Address, a.AgencyTypeID, a.DistrictID,
		a.CurrentDebt, a.ReceptionDate, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed agency: %v", err)
	}
	return a
}

func DeactivateAgency(t *testing.T, db *sql.DB, agencyID uuid.UUID) {
	t.Helper()

	if _, err := db.Exec(`UPDATE agencies SET is_active = FALSE WHERE id = $1`, agencyID); err != nil {
		t.Fatalf("deactivate agency %s: %v", agencyID, err)
	}
}

func SeedProduct(t *testing.T, db *sql.DB, price, stock int64) *domain.Product {
	t.Helper()

	unitID := uuid.New()
	if _, err := db.Exec(`INSERT INTO units (id, name) VALUES ($1, 'box')`, unitID); err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:            uuid.New(),
		Name:          "Product " + uuid.NewString()[:8],
		UnitID:        unitID,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := db.Exec(
		`INSERT INTO products (id, name, unit_id, price, stock_quantity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.UnitID, p.Price, p.StockQuantity, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// SeedOrder inserts an order in the given status without touching stock or
// debt. It is meant for report tests that only need order history.
func SeedOrder(t *testing.T, db *sql.DB, agencyID uuid.UUID, date time.Time, status domain.OrderStatus, productID uuid.UUID, qty, unitPrice int64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO export_orders (id, agency_id, order_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5)`,
		id, agencyID, date, status, StaffID,
	)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	_, err = db.Exec(
		`INSERT INTO export_order_lines (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), id, productID, qty, unitPrice,
	)
	if err != nil {
		t.Fatalf("seed order line: %v", err)
	}
	return id
}

func SeedPayment(t *testing.T, db *sql.DB, agencyID uuid.UUID, date time.Time, amount int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO payments (id, agency_id, payment_date, amount, received_by)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), agencyID, date, amount, StaffID,
	)
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func SetRegulation(t *testing.T, db *sql.DB, code, value string, active bool) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO regulations (code, name, value, is_active) VALUES ($1, $1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET value = EXCLUDED.value, is_active = EXCLUDED.is_active`,
		code, value, active,
	)
	if err != nil {
		t.Fatalf("set regulation %s: %v", code, err)
	}
}

func GetAgencyDebt(t *testing.T, db *sql.DB, agencyID uuid.UUID) int64 {
	t.Helper()

	var debt int64
	if err := db.QueryRow(`SELECT current_debt FROM agencies WHERE id = $1`, agencyID).Scan(&debt); err != nil {
		t.Fatalf("get agency debt %s: %v", agencyID, err)
	}
	return debt
}

func GetProductStock(t *testing.T, db *sql.DB, productID uuid.UUID) int64 {
	t.Helper()

	var stock int64
	if err := db.QueryRow(`SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("get product stock %s: %v", productID, err)
	}
	return stock
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
