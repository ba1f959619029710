package holiday_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"muni-hris/internal/department"
	"muni-hris/internal/holiday"
	holidayerrors "muni-hris/internal/holiday/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func calDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

type fakeHolidayRepository struct {
	createFn           func(ctx context.Context, h *holiday.Holiday) error
	updateFn           func(ctx context.Context, h *holiday.Holiday) error
	deleteFn           func(ctx context.Context, id string) error
	findByIDFn         func(ctx context.Context, id string) (*holiday.Holiday, error)
	findAllFn          func(ctx context.Context, departmentIDs []string) ([]holiday.Holiday, error)
	findForDateRangeFn func(ctx context.Context, start, end time.Time, departmentID *string) ([]holiday.Holiday, error)
	existsOnDateFn     func(ctx context.Context, date time.Time, departmentID *string, excludeID *string) (bool, error)
}

func (f *fakeHolidayRepository) Create(ctx context.Context, h *holiday.Holiday) error {
	if f.createFn != nil {
		return f.createFn(ctx, h)
	}
	return nil
}

func (f *fakeHolidayRepository) Update(ctx context.Context, h *holiday.Holiday) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, h)
	}
	return nil
}

func (f *fakeHolidayRepository) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeHolidayRepository) FindByID(ctx context.Context, id string) (*holiday.Holiday, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeHolidayRepository) FindAll(ctx context.Context, departmentIDs []string) ([]holiday.Holiday, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, departmentIDs)
	}
	return nil, nil
}

func (f *fakeHolidayRepository) FindForDateRange(ctx context.Context, start, end time.Time, departmentID *string) ([]holiday.Holiday, error) {
	if f.findForDateRangeFn != nil {
		return f.findForDateRangeFn(ctx, start, end, departmentID)
	}
	return nil, nil
}

func (f *fakeHolidayRepository) ExistsOnDate(ctx context.Context, date time.Time, departmentID *string, excludeID *string) (bool, error) {
	if f.existsOnDateFn != nil {
		return f.existsOnDateFn(ctx, date, departmentID, excludeID)
	}
	return false, nil
}

type fakeDepartmentRepository struct {
	findByIDFn func(ctx context.Context, id string) (*department.Department, error)
}

func (f *fakeDepartmentRepository) FindByID(ctx context.Context, id string) (*department.Department, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDepartmentRepository) SubtreeIDs(_ context.Context, rootID string) ([]string, error) {
	return []string{rootID}, nil
}

func TestHolidayService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var created *holiday.Holiday
		repo := &fakeHolidayRepository{
			createFn: func(_ context.Context, h *holiday.Holiday) error {
				created = h
				return nil
			},
		}
		svc := holiday.NewService(repo, &fakeDepartmentRepository{}, nil)

		resp, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name: "Foundation Day",
			Date: "2024-10-03",
			Type: holiday.TypeHoliday,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Foundation Day", resp.Name)
		assert.Equal(t, "2024-10-03", resp.Date)
		assert.NotNil(t, created)
		assert.Nil(t, created.DepartmentID)
	})

	t.Run("success department scoped", func(t *testing.T) {
		deptID := uuid.New()
		departments := &fakeDepartmentRepository{
			findByIDFn: func(_ context.Context, id string) (*department.Department, error) {
				assert.Equal(t, deptID.String(), id)
				return &department.Department{ID: deptID}, nil
			},
		}
		svc := holiday.NewService(&fakeHolidayRepository{}, departments, nil)

		raw := deptID.String()
		resp, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name:         "Sanitation Workers Day",
			Date:         "2024-05-21",
			Type:         holiday.TypeHoliday,
			DepartmentID: &raw,
		})

		assert.NoError(t, err)
		assert.Equal(t, raw, *resp.DepartmentID)
	})

	t.Run("negative unknown department", func(t *testing.T) {
		svc := holiday.NewService(&fakeHolidayRepository{}, &fakeDepartmentRepository{}, nil)

		raw := uuid.New().String()
		_, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name:         "Ghost Department Day",
			Date:         "2024-05-21",
			Type:         holiday.TypeHoliday,
			DepartmentID: &raw,
		})

		assert.ErrorIs(t, err, holidayerrors.ErrDepartmentNotFound)
	})

	t.Run("negative duplicate date", func(t *testing.T) {
		repo := &fakeHolidayRepository{
			existsOnDateFn: func(_ context.Context, _ time.Time, _ *string, _ *string) (bool, error) {
				return true, nil
			},
		}
		svc := holiday.NewService(repo, &fakeDepartmentRepository{}, nil)

		_, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name: "New Year",
			Date: "2024-01-01",
			Type: holiday.TypeHoliday,
		})

		assert.ErrorIs(t, err, holidayerrors.ErrDuplicateHoliday)
	})

	t.Run("negative workday cannot deduct leave", func(t *testing.T) {
		svc := holiday.NewService(&fakeHolidayRepository{}, &fakeDepartmentRepository{}, nil)

		_, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name:        "Election Saturday",
			Date:        "2024-04-13",
			Type:        holiday.TypeWorkday,
			DeductLeave: true,
		})

		assert.ErrorIs(t, err, holidayerrors.ErrWorkdayCannotDeduct)
	})

	t.Run("negative malformed date", func(t *testing.T) {
		svc := holiday.NewService(&fakeHolidayRepository{}, &fakeDepartmentRepository{}, nil)

		_, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name: "Typo Day",
			Date: "03-10-2024",
			Type: holiday.TypeHoliday,
		})

		assert.ErrorIs(t, err, holidayerrors.ErrInvalidDateFormat)
	})
}

func TestHolidayService_DaysInRange(t *testing.T) {
	ctx := context.Background()
	day := func(s string) time.Time { return calDay(t, s) }

	t.Run("department row overrides global row on the same date", func(t *testing.T) {
		deptID := uuid.New()
		repo := &fakeHolidayRepository{
			findForDateRangeFn: func(_ context.Context, _, _ time.Time, departmentID *string) ([]holiday.Holiday, error) {
				assert.NotNil(t, departmentID)
				return []holiday.Holiday{
					{Date: day("2024-05-21"), Type: holiday.TypeWorkday, DepartmentID: &deptID},
					{Date: day("2024-05-21"), Type: holiday.TypeHoliday},
					{Date: day("2024-05-22"), Type: holiday.TypeHoliday, DeductLeave: true},
				}, nil
			},
		}
		svc := holiday.NewService(repo, &fakeDepartmentRepository{}, nil)

		raw := deptID.String()
		days, err := svc.DaysInRange(ctx, day("2024-05-20"), day("2024-05-24"), &raw)

		assert.NoError(t, err)
		assert.Len(t, days, 2)
		assert.True(t, days["2024-05-21"].IsWorkday)
		assert.True(t, days["2024-05-22"].DeductsLeave)
	})

	t.Run("empty range yields no overrides", func(t *testing.T) {
		svc := holiday.NewService(&fakeHolidayRepository{}, &fakeDepartmentRepository{}, nil)

		days, err := svc.DaysInRange(ctx, day("2024-07-01"), day("2024-07-05"), nil)

		assert.NoError(t, err)
		assert.Empty(t, days)
	})
}

func TestHolidayService_CalendarCache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit serves from cache without touching the repository", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		repo := &fakeHolidayRepository{
			findForDateRangeFn: func(_ context.Context, _, _ time.Time, _ *string) ([]holiday.Holiday, error) {
				t.Fatal("repository must not be queried on a cache hit")
				return nil, nil
			},
		}
		svc := holiday.NewService(repo, &fakeDepartmentRepository{}, rdb)

		cached := []holiday.Holiday{{Date: calDay(t, "2024-05-01"), Type: holiday.TypeHoliday}}
		payload, err := json.Marshal(cached)
		assert.NoError(t, err)

		mock.ExpectGet("holiday:cal:ver").SetVal("3")
		mock.ExpectGet("holiday:cal:3:global:2024-05-01:2024-05-03").SetVal(string(payload))

		days, err := svc.DaysInRange(ctx, calDay(t, "2024-05-01"), calDay(t, "2024-05-03"), nil)

		assert.NoError(t, err)
		assert.Len(t, days, 1)
		assert.Contains(t, days, "2024-05-01")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss falls through to the repository and fills the cache", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		rows := []holiday.Holiday{{Date: calDay(t, "2024-05-01"), Type: holiday.TypeHoliday, DeductLeave: true}}
		repo := &fakeHolidayRepository{
			findForDateRangeFn: func(_ context.Context, _, _ time.Time, _ *string) ([]holiday.Holiday, error) {
				return rows, nil
			},
		}
		svc := holiday.NewService(repo, &fakeDepartmentRepository{}, rdb)

		payload, err := json.Marshal(rows)
		assert.NoError(t, err)

		// a missing version key degrades to version 0
		mock.ExpectGet("holiday:cal:ver").RedisNil()
		mock.ExpectGet("holiday:cal:0:global:2024-05-01:2024-05-03").RedisNil()
		mock.ExpectSet("holiday:cal:0:global:2024-05-01:2024-05-03", payload, 12*time.Hour).SetVal("OK")

		days, err := svc.DaysInRange(ctx, calDay(t, "2024-05-01"), calDay(t, "2024-05-03"), nil)

		assert.NoError(t, err)
		assert.True(t, days["2024-05-01"].DeductsLeave)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create bumps the version so cached ranges go stale", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		repo := &fakeHolidayRepository{
			findForDateRangeFn: func(_ context.Context, _, _ time.Time, _ *string) ([]holiday.Holiday, error) {
				return nil, nil
			},
		}
		svc := holiday.NewService(repo, &fakeDepartmentRepository{}, rdb)

		mock.ExpectIncr("holiday:cal:ver").SetVal(4)

		_, err := svc.Create(ctx, holiday.CreateHolidayRequest{
			Name: "Foundation Day",
			Date: "2024-10-03",
			Type: holiday.TypeHoliday,
		})
		assert.NoError(t, err)

		// the next read keys on the bumped version and misses
		emptyPayload, err := json.Marshal([]holiday.Holiday(nil))
		assert.NoError(t, err)
		mock.ExpectGet("holiday:cal:ver").SetVal("4")
		mock.ExpectGet("holiday:cal:4:global:2024-10-01:2024-10-05").RedisNil()
		mock.ExpectSet("holiday:cal:4:global:2024-10-01:2024-10-05", emptyPayload, 12*time.Hour).SetVal("OK")

		_, err = svc.DaysInRange(ctx, calDay(t, "2024-10-01"), calDay(t, "2024-10-05"), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
