package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/config"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

//go:embed sql/postgres/list-stations.sql
var pgListStationsSQL string

//go:embed sql/postgres/query-readings.sql
var pgQueryReadingsSQL string

//go:embed sql/postgres/query-latest.sql
var pgQueryLatestSQL string

//go:embed sql/sqlite/list-stations.sql
var sqliteListStationsSQL string

//go:embed sql/sqlite/query-readings.sql
var sqliteQueryReadingsSQL string

//go:embed sql/sqlite/query-latest.sql
var sqliteQueryLatestSQL string

// SQLiteTimeFormat is how the development schema stores recorded_at:
// fixed-width UTC, so text comparison is chronological.
const SQLiteTimeFormat = "2006-01-02T15:04:05.000Z"

type ComfortRepository interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
	QueryReadings(ctx context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error)
	// QueryLatest returns at most one reading per station: the one closest to
	// ref among readings at or after since. A zero since means no lower bound.
	QueryLatest(ctx context.Context, ref time.Time, since time.Time) ([]domain.RawReading, error)
}

type dialect struct {
	listStations  string
	queryReadings string
	queryLatest   string
	timeArg       func(time.Time) any
}

var dialects = map[string]dialect{
	config.DriverPostgres: {
		listStations:  pgListStationsSQL,
		queryReadings: pgQueryReadingsSQL,
		queryLatest:   pgQueryLatestSQL,
		timeArg:       func(t time.Time) any { return t.UTC() },
	},
	config.DriverSQLite: {
		listStations:  sqliteListStationsSQL,
		queryReadings: sqliteQueryReadingsSQL,
		queryLatest:   sqliteQueryLatestSQL,
		timeArg:       func(t time.Time) any { return t.UTC().Format(SQLiteTimeFormat) },
	},
}

type repositoryImpl struct {
	db      *sql.DB
	dialect dialect
}

// NewRepository returns the repository for the given driver name
// (config.DriverPostgres or config.DriverSQLite).
func NewRepository(db *sql.DB, driver string) (ComfortRepository, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("repository: unsupported driver %q", driver)
	}
	return &repositoryImpl{db: db, dialect: d}, nil
}

func (r *repositoryImpl) ListStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.listStations)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()

	out := []domain.Station{}
	for rows.Next() {
		var (
			s        domain.Station
			lat, lon sql.NullFloat64
			zip      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &lat, &lon, &zip); err != nil {
			return nil, err
		}
		s.Latitude = nullFloat(lat)
		s.Longitude = nullFloat(lon)
		s.Zipcode = nullString(zip)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) QueryReadings(ctx context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.queryReadings,
		optionalString(filter.StationID),
		optionalString(filter.StationName),
		r.optionalTime(filter.Start),
		r.optionalTime(filter.End),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	out := []domain.RawReading{}
	for rows.Next() {
		var (
			rec         domain.RawReading
			zip, env    sql.NullString
			recordedAt  any
			measurement = newMeasurementDest()
		)
		dest := append([]any{&rec.StationID, &rec.Name, &zip, &recordedAt, &env}, measurement.pointers()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := fillReading(&rec, zip, env, recordedAt, measurement); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) QueryLatest(ctx context.Context, ref time.Time, since time.Time) ([]domain.RawReading, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.queryLatest,
		r.dialect.timeArg(ref),
		r.optionalTime(since),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest rows", "error", err)
		}
	}()

	out := []domain.RawReading{}
	for rows.Next() {
		var (
			rec         domain.RawReading
			zip, env    sql.NullString
			lat, lon    sql.NullFloat64
			recordedAt  any
			seconds     sql.NullFloat64
			measurement = newMeasurementDest()
		)
		dest := append([]any{&rec.StationID, &rec.Name, &zip, &lat, &lon, &recordedAt, &env}, measurement.pointers()...)
		dest = append(dest, &seconds)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := fillReading(&rec, zip, env, recordedAt, measurement); err != nil {
			return nil, err
		}
		rec.Latitude = nullFloat(lat)
		rec.Longitude = nullFloat(lon)
		rec.SecondsFromRef = nullFloat(seconds)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) optionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return r.dialect.timeArg(t)
}

// measurementDest receives the ten measurement columns as whatever the
// driver produced; Postgres NUMERIC arrives as []byte.
type measurementDest [10]any

func newMeasurementDest() *measurementDest { return &measurementDest{} }

func (m *measurementDest) pointers() []any {
	out := make([]any, len(m))
	for i := range m {
		out[i] = &m[i]
	}
	return out
}

func fillReading(rec *domain.RawReading, zip, env sql.NullString, recordedAt any, m *measurementDest) error {
	t, err := parseTimestamp(recordedAt)
	if err != nil {
		return err
	}
	rec.RecordedAt = t
	rec.Zipcode = nullString(zip)
	rec.Environment = nullString(env)

	v := make([]any, len(m))
	for i, raw := range m {
		if b, ok := raw.([]byte); ok {
			raw = string(b)
		}
		v[i] = raw
	}
	rec.CCIF = v[0]
	rec.AirTempF = v[1]
	rec.RelHumidity = v[2]
	rec.SolarRadiation = v[3]
	rec.WindSpeedMph = v[4]
	rec.TempHumidityAdjustment = v[5]
	rec.WindSpeedAdjustment = v[6]
	rec.DirectSolarAdjustment = v[7]
	rec.SurfaceTempAdjustment = v[8]
	rec.TotalRadiationAdjustment = v[9]
	return nil
}

func parseTimestamp(v any) (time.Time, error) {
	var ts string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		ts = t
	case []byte:
		ts = string(t)
	default:
		return time.Time{}, fmt.Errorf("parse timestamp: unexpected type %T", v)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
		}
	}
	return t.UTC(), nil
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func nullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
