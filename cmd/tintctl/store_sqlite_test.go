package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockSQLiteStore(t *testing.T) (*sqliteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return newSQLiteStore(db, DefaultLimits()), mock
}

func TestSQLiteStore_Write(t *testing.T) {
	st, mock := newMockSQLiteStore(t)
	set := DefaultProfileSet(DefaultLimits())
	set.Active = true
	set.Internal = ProfileID2
	set.External = ProfileID3

	mock.ExpectBegin()
	mock.ExpectExec(upsertProfileSetSQL).
		WithArgs(profileSetRowID, true, 1, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := range set.Profiles {
		data, err := json.Marshal(set.Profiles[i])
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		mock.ExpectExec(upsertProfileSQL).
			WithArgs(i, string(data), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := st.Write(set); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_WriteRollsBackOnError(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(upsertProfileSetSQL).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	if err := st.Write(DefaultProfileSet(DefaultLimits())); err == nil {
		t.Fatalf("expected write error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_ReadEmptyYieldsDefaults(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	mock.ExpectQuery(selectProfileSetSQL).
		WithArgs(profileSetRowID).
		WillReturnError(sql.ErrNoRows)

	set, err := st.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if set != DefaultProfileSet(DefaultLimits()) {
		t.Errorf("expected defaults, got %+v", set)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_Read(t *testing.T) {
	st, mock := newMockSQLiteStore(t)
	l := DefaultLimits()

	p := DefaultProfile(l)
	p.Day.Temperature = 4200
	p.Night.Luminance = -0.5
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectQuery(selectProfileSetSQL).
		WithArgs(profileSetRowID).
		WillReturnRows(sqlmock.NewRows([]string{"active", "internal_profile", "external_profile"}).
			AddRow(true, 3, 0))
	mock.ExpectQuery(selectProfilesSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).
			AddRow(3, string(data)).
			AddRow(9, `{"ignored":true}`))

	set, err := st.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !set.Active || set.Internal != ProfileID4 || set.External != ProfileID1 {
		t.Errorf("bindings = active:%v internal:%v external:%v", set.Active, set.Internal, set.External)
	}
	if set.Profiles[ProfileID4] != p {
		t.Errorf("profile 4 = %+v, want %+v", set.Profiles[ProfileID4], p)
	}
	if set.Profiles[ProfileID1] != DefaultProfile(l) {
		t.Errorf("missing rows should keep defaults")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_ReadRejectsCorruptProfile(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	mock.ExpectQuery(selectProfileSetSQL).
		WithArgs(profileSetRowID).
		WillReturnRows(sqlmock.NewRows([]string{"active", "internal_profile", "external_profile"}).
			AddRow(false, 0, 1))
	mock.ExpectQuery(selectProfilesSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).AddRow(0, `{"day":`))

	if _, err := st.Read(); err == nil {
		t.Errorf("expected decode error")
	}
}
