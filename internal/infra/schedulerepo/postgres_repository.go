package schedulerepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/crm-briefing/internal/domain/briefing"
)

const scheduleSelect = `
	SELECT s.id, s.title, s.type, s.date, s.time, s.location, s.description, s.priority, s.status,
		s.company_number, s.created_at,
		u.id, u.name, u.email, u.level, u.business_number, u.phone,
		COALESCE((
			SELECT json_agg(json_build_object('id', c.id, 'name', c.name, 'phone', c.phone, 'email', c.email) ORDER BY sc.position)
			FROM schedule_customers sc JOIN customers c ON c.id = sc.customer_id
			WHERE sc.schedule_id = s.id
		), '[]'::json),
		COALESCE((
			SELECT json_agg(json_build_object('id', p.id, 'title', p.title, 'address', p.address) ORDER BY sp.position)
			FROM schedule_properties sp JOIN properties p ON p.id = sp.property_id
			WHERE sp.schedule_id = s.id
		), '[]'::json),
		COALESCE((
			SELECT json_agg(json_build_object('id', k.id, 'contractNumber', k.contract_number, 'type', k.type, 'status', k.status) ORDER BY sk.position)
			FROM schedule_contracts sk JOIN contracts k ON k.id = sk.contract_id
			WHERE sk.schedule_id = s.id
		), '[]'::json)
	FROM schedules s
	LEFT JOIN users u ON u.id = s.publisher_id`

// PostgresRepository implements briefing.ScheduleRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Find returns schedules in the filter window ordered by date then time.
func (r *PostgresRepository) Find(ctx context.Context, filter briefing.ScheduleFilter) ([]briefing.Schedule, error) {
	where, args := buildWhere(filter)
	rows, err := r.pool.Query(ctx, scheduleSelect+" WHERE "+where+" ORDER BY s.date ASC, s.time ASC, s.id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]briefing.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get loads one schedule with its related records.
func (r *PostgresRepository) Get(ctx context.Context, id string) (briefing.Schedule, error) {
	row := r.pool.QueryRow(ctx, scheduleSelect+" WHERE s.id = $1", id)
	s, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return briefing.Schedule{}, briefing.ErrScheduleNotFound
	}
	return s, err
}

func buildWhere(filter briefing.ScheduleFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clauses = append(clauses, fmt.Sprintf("s.date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clauses = append(clauses, fmt.Sprintf("s.date <= $%d", len(args)))
	}
	if filter.PublisherID != "" {
		args = append(args, filter.PublisherID)
		clauses = append(clauses, fmt.Sprintf("s.publisher_id = $%d", len(args)))
	}
	if filter.CompanyNumber != "" {
		args = append(args, filter.CompanyNumber)
		clauses = append(clauses, fmt.Sprintf("s.company_number = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "TRUE", nil
	}
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (briefing.Schedule, error) {
	var (
		s                                briefing.Schedule
		pubID, pubName, pubEmail         *string
		pubBusiness, pubPhone            *string
		pubLevel                         *int
		customers, properties, contracts []byte
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Type, &s.Date, &s.Time, &s.Location, &s.Description, &s.Priority, &s.Status,
		&s.CompanyNumber, &s.CreatedAt,
		&pubID, &pubName, &pubEmail, &pubLevel, &pubBusiness, &pubPhone,
		&customers, &properties, &contracts,
	)
	if err != nil {
		return briefing.Schedule{}, err
	}
	if pubID != nil {
		s.Publisher = &briefing.Publisher{
			ID:             *pubID,
			Name:           deref(pubName),
			Email:          deref(pubEmail),
			BusinessNumber: deref(pubBusiness),
			Phone:          deref(pubPhone),
		}
		if pubLevel != nil {
			s.Publisher.Level = *pubLevel
		}
	}
	if err := json.Unmarshal(customers, &s.RelatedCustomers); err != nil {
		return briefing.Schedule{}, fmt.Errorf("decode related customers: %w", err)
	}
	if err := json.Unmarshal(properties, &s.RelatedProperties); err != nil {
		return briefing.Schedule{}, fmt.Errorf("decode related properties: %w", err)
	}
	if err := json.Unmarshal(contracts, &s.RelatedContracts); err != nil {
		return briefing.Schedule{}, fmt.Errorf("decode related contracts: %w", err)
	}
	return s, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

var _ briefing.ScheduleRepository = (*PostgresRepository)(nil)
