package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"muni-hris/internal/department"
	holidayerrors "muni-hris/internal/holiday/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout    = "2006-01-02"
	calVersionKey = "holiday:cal:ver"
	calCacheTTL   = 12 * time.Hour
)

// Calendar is the narrow read contract the leave day counter depends on.
type Calendar interface {
	// DaysInRange returns the calendar overrides inside [start, end] keyed
	// by YYYY-MM-DD. Dates absent from the map follow plain weekday rules.
	DaysInRange(ctx context.Context, start, end time.Time, departmentID *string) (map[string]Day, error)
}

type Service interface {
	Calendar
	Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	Update(ctx context.Context, id string, req UpdateHolidayRequest) (HolidayResponse, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, departmentIDs []string) ([]HolidayResponse, error)
	GetByID(ctx context.Context, id string) (HolidayResponse, error)
}

type service struct {
	repo        Repository
	departments department.Repository
	rdb         *redis.Client
	logger      *zap.Logger
}

// NewService builds the holiday service. rdb may be nil; the calendar then
// reads straight from the database.
func NewService(repo Repository, departments department.Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("holiday.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("holiday.service")
	}
	return &service{repo: repo, departments: departments, rdb: rdb, logger: l}
}

func (s *service) DaysInRange(ctx context.Context, start, end time.Time, departmentID *string) (map[string]Day, error) {
	holidays, err := s.cachedRange(ctx, start, end, departmentID)
	if err != nil {
		return nil, err
	}

	days := make(map[string]Day, len(holidays))
	specific := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		key := h.Date.Format(dateLayout)
		// a department-specific row overrides a global one on the same date
		if specific[key] && h.DepartmentID == nil {
			continue
		}
		day := Day{Date: h.Date}
		switch h.Type {
		case TypeWorkday:
			day.IsWorkday = true
		case TypeHoliday:
			day.DeductsLeave = h.DeductLeave
		}
		days[key] = day
		if h.DepartmentID != nil {
			specific[key] = true
		}
	}
	return days, nil
}

func (s *service) cachedRange(ctx context.Context, start, end time.Time, departmentID *string) ([]Holiday, error) {
	if s.rdb == nil {
		return s.repo.FindForDateRange(ctx, start, end, departmentID)
	}

	ver, err := s.rdb.Get(ctx, calVersionKey).Result()
	if err != nil {
		ver = "0"
	}
	dept := "global"
	if departmentID != nil {
		dept = *departmentID
	}
	cacheKey := fmt.Sprintf("holiday:cal:%s:%s:%s:%s",
		ver, dept, start.Format(dateLayout), end.Format(dateLayout))

	if raw, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var cached []Holiday
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
	}

	holidays, err := s.repo.FindForDateRange(ctx, start, end, departmentID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(holidays); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, payload, calCacheTTL).Err(); err != nil {
			s.logger.Warn("holiday cache write failed", zap.Error(err))
		}
	}
	return holidays, nil
}

// invalidateCalendar bumps the cache version so every cached range goes stale.
func (s *service) invalidateCalendar(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, calVersionKey).Err(); err != nil {
		s.logger.Warn("holiday cache invalidation failed", zap.Error(err))
	}
}

func (s *service) Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return HolidayResponse{}, holidayerrors.ErrInvalidDateFormat
	}
	if req.Type != TypeHoliday && req.Type != TypeWorkday {
		return HolidayResponse{}, holidayerrors.ErrInvalidHolidayType
	}
	if req.Type == TypeWorkday && req.DeductLeave {
		return HolidayResponse{}, holidayerrors.ErrWorkdayCannotDeduct
	}

	exists, err := s.repo.ExistsOnDate(ctx, date, req.DepartmentID, nil)
	if err != nil {
		return HolidayResponse{}, err
	}
	if exists {
		return HolidayResponse{}, holidayerrors.ErrDuplicateHoliday
	}

	h := &Holiday{
		ID:          uuid.New(),
		Name:        req.Name,
		Date:        date,
		Type:        req.Type,
		DeductLeave: req.DeductLeave,
	}
	h.DepartmentID, err = s.resolveDepartment(ctx, req.DepartmentID)
	if err != nil {
		return HolidayResponse{}, err
	}

	if err := s.repo.Create(ctx, h); err != nil {
		s.logger.Error("create holiday persist failed", zap.Error(err))
		return HolidayResponse{}, err
	}

	s.invalidateCalendar(ctx)
	s.logger.Info("holiday created",
		zap.String("holiday_id", h.ID.String()),
		zap.String("date", req.Date),
		zap.String("type", req.Type),
	)
	return mapToResponse(*h), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateHolidayRequest) (HolidayResponse, error) {
	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return HolidayResponse{}, holidayerrors.ErrHolidayNotFound
		}
		return HolidayResponse{}, err
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return HolidayResponse{}, holidayerrors.ErrInvalidDateFormat
	}
	if req.Type == TypeWorkday && req.DeductLeave {
		return HolidayResponse{}, holidayerrors.ErrWorkdayCannotDeduct
	}

	exists, err := s.repo.ExistsOnDate(ctx, date, req.DepartmentID, &id)
	if err != nil {
		return HolidayResponse{}, err
	}
	if exists {
		return HolidayResponse{}, holidayerrors.ErrDuplicateHoliday
	}

	h.Name = req.Name
	h.Date = date
	h.Type = req.Type
	h.DeductLeave = req.DeductLeave
	h.DepartmentID, err = s.resolveDepartment(ctx, req.DepartmentID)
	if err != nil {
		return HolidayResponse{}, err
	}

	if err := s.repo.Update(ctx, h); err != nil {
		s.logger.Error("update holiday persist failed", zap.String("holiday_id", id), zap.Error(err))
		return HolidayResponse{}, err
	}

	s.invalidateCalendar(ctx)
	return mapToResponse(*h), nil
}

// resolveDepartment validates an optional department reference. nil stays nil
// (a global calendar entry).
func (s *service) resolveDepartment(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	deptID, err := uuid.Parse(*raw)
	if err != nil {
		return nil, holidayerrors.ErrInvalidDepartmentID
	}
	if _, err := s.departments.FindByID(ctx, deptID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, holidayerrors.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &deptID, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return holidayerrors.ErrHolidayNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCalendar(ctx)
	return nil
}

func (s *service) GetAll(ctx context.Context, departmentIDs []string) ([]HolidayResponse, error) {
	holidays, err := s.repo.FindAll(ctx, departmentIDs)
	if err != nil {
		return nil, err
	}
	resp := make([]HolidayResponse, len(holidays))
	for i, h := range holidays {
		resp[i] = mapToResponse(h)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (HolidayResponse, error) {
	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return HolidayResponse{}, holidayerrors.ErrHolidayNotFound
		}
		return HolidayResponse{}, err
	}
	return mapToResponse(*h), nil
}

func mapToResponse(h Holiday) HolidayResponse {
	resp := HolidayResponse{
		ID:          h.ID.String(),
		Name:        h.Name,
		Date:        h.Date.Format(dateLayout),
		Type:        h.Type,
		DeductLeave: h.DeductLeave,
	}
	if h.DepartmentID != nil {
		v := h.DepartmentID.String()
		resp.DepartmentID = &v
	}
	return resp
}
