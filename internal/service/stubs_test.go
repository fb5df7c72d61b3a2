package service

import (
	"context"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/riot"
)

type roomRepoStub struct {
	createFn             func(*models.Room) error
	getByIDFn            func(uint) (*models.Room, error)
	listByStatusFn       func([]models.RoomStatus, int, int) ([]models.Room, error)
	activeRoomsForUserFn func(uint) ([]models.Room, error)
	mutateFn             func(uint, func(*models.Room) error) (*models.Room, error)
	staleFormingFn       func(time.Time) ([]models.Room, error)
	dueForDetectionFn    func() ([]models.Room, error)
	dueForResultsFn      func(time.Time) ([]models.Room, error)
	countFn              func() (int64, error)
	countActiveFn        func() (int64, error)
}

func (s *roomRepoStub) Create(_ context.Context, room *models.Room) error {
	return s.createFn(room)
}
func (s *roomRepoStub) GetByID(_ context.Context, id uint) (*models.Room, error) {
	return s.getByIDFn(id)
}
func (s *roomRepoStub) ListByStatus(_ context.Context, statuses []models.RoomStatus, limit, offset int) ([]models.Room, error) {
	return s.listByStatusFn(statuses, limit, offset)
}
func (s *roomRepoStub) ActiveRoomsForUser(_ context.Context, userID uint) ([]models.Room, error) {
	return s.activeRoomsForUserFn(userID)
}
func (s *roomRepoStub) Mutate(_ context.Context, id uint, fn func(*models.Room) error) (*models.Room, error) {
	return s.mutateFn(id, fn)
}
func (s *roomRepoStub) StaleForming(_ context.Context, idleSince time.Time) ([]models.Room, error) {
	return s.staleFormingFn(idleSince)
}
func (s *roomRepoStub) DueForDetection(_ context.Context) ([]models.Room, error) {
	return s.dueForDetectionFn()
}
func (s *roomRepoStub) DueForResults(_ context.Context, detectedBefore time.Time) ([]models.Room, error) {
	return s.dueForResultsFn(detectedBefore)
}
func (s *roomRepoStub) Count(_ context.Context) (int64, error)       { return s.countFn() }
func (s *roomRepoStub) CountActive(_ context.Context) (int64, error) { return s.countActiveFn() }

// roomRepoWith returns a stub backed by a single in-memory room whose Mutate
// applies the mutation the way the real repository does.
func roomRepoWith(room *models.Room) *roomRepoStub {
	stub := noopRoomRepo()
	stub.getByIDFn = func(id uint) (*models.Room, error) {
		if room == nil || room.ID != id {
			return nil, models.NewNotFoundError("Room", id)
		}
		copied := *room
		return &copied, nil
	}
	stub.mutateFn = func(id uint, fn func(*models.Room) error) (*models.Room, error) {
		if room == nil || room.ID != id {
			return nil, models.NewNotFoundError("Room", id)
		}
		if err := fn(room); err != nil {
			return nil, err
		}
		room.Version++
		copied := *room
		return &copied, nil
	}
	return stub
}

func noopRoomRepo() *roomRepoStub {
	return &roomRepoStub{
		createFn:             func(*models.Room) error { return nil },
		getByIDFn:            func(uint) (*models.Room, error) { return &models.Room{}, nil },
		listByStatusFn:       func([]models.RoomStatus, int, int) ([]models.Room, error) { return nil, nil },
		activeRoomsForUserFn: func(uint) ([]models.Room, error) { return nil, nil },
		mutateFn:             func(uint, func(*models.Room) error) (*models.Room, error) { return &models.Room{}, nil },
		staleFormingFn:       func(time.Time) ([]models.Room, error) { return nil, nil },
		dueForDetectionFn:    func() ([]models.Room, error) { return nil, nil },
		dueForResultsFn:      func(time.Time) ([]models.Room, error) { return nil, nil },
		countFn:              func() (int64, error) { return 0, nil },
		countActiveFn:        func() (int64, error) { return 0, nil },
	}
}

type profileRepoStub struct {
	getByIDFn            func(uint) (*models.Profile, error)
	getByEmailFn         func(string) (*models.Profile, error)
	getByUsernameFn      func(string) (*models.Profile, error)
	getByRiotIDFn        func(string) (*models.Profile, error)
	getByIDsFn           func([]uint) ([]models.Profile, error)
	createFn             func(*models.Profile) error
	updateFn             func(*models.Profile) error
	updateFieldsFn       func(uint, map[string]interface{}) error
	listFn               func(int, int) ([]models.Profile, error)
	countFn              func() (int64, error)
	stalestRankedFn      func(time.Time, int) ([]models.Profile, error)
	incrementGameStatsFn func(uint, bool) error
}

func (s *profileRepoStub) GetByID(_ context.Context, id uint) (*models.Profile, error) {
	return s.getByIDFn(id)
}
func (s *profileRepoStub) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	return s.getByEmailFn(email)
}
func (s *profileRepoStub) GetByUsername(_ context.Context, username string) (*models.Profile, error) {
	return s.getByUsernameFn(username)
}
func (s *profileRepoStub) GetByRiotID(_ context.Context, riotID string) (*models.Profile, error) {
	return s.getByRiotIDFn(riotID)
}
func (s *profileRepoStub) GetByIDs(_ context.Context, ids []uint) ([]models.Profile, error) {
	return s.getByIDsFn(ids)
}
func (s *profileRepoStub) Create(_ context.Context, profile *models.Profile) error {
	return s.createFn(profile)
}
func (s *profileRepoStub) Update(_ context.Context, profile *models.Profile) error {
	return s.updateFn(profile)
}
func (s *profileRepoStub) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(id, fields)
}
func (s *profileRepoStub) List(_ context.Context, limit, offset int) ([]models.Profile, error) {
	return s.listFn(limit, offset)
}
func (s *profileRepoStub) Count(_ context.Context) (int64, error) { return s.countFn() }
func (s *profileRepoStub) StalestRanked(_ context.Context, olderThan time.Time, limit int) ([]models.Profile, error) {
	return s.stalestRankedFn(olderThan, limit)
}
func (s *profileRepoStub) IncrementGameStats(_ context.Context, id uint, won bool) error {
	return s.incrementGameStatsFn(id, won)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByIDFn:            func(id uint) (*models.Profile, error) { return &models.Profile{ID: id, IsVerified: true}, nil },
		getByEmailFn:         func(string) (*models.Profile, error) { return nil, nil },
		getByUsernameFn:      func(string) (*models.Profile, error) { return nil, nil },
		getByRiotIDFn:        func(string) (*models.Profile, error) { return nil, nil },
		getByIDsFn:           func([]uint) ([]models.Profile, error) { return nil, nil },
		createFn:             func(*models.Profile) error { return nil },
		updateFn:             func(*models.Profile) error { return nil },
		updateFieldsFn:       func(uint, map[string]interface{}) error { return nil },
		listFn:               func(int, int) ([]models.Profile, error) { return nil, nil },
		countFn:              func() (int64, error) { return 0, nil },
		stalestRankedFn:      func(time.Time, int) ([]models.Profile, error) { return nil, nil },
		incrementGameStatsFn: func(uint, bool) error { return nil },
	}
}

type reportRepoStub struct {
	createFn                 func(*models.Report) error
	getByIDFn                func(uint) (*models.Report, error)
	listFn                   func(repository.ReportFilter) ([]models.Report, error)
	resolveFn                func(uint, map[string]interface{}) error
	countByStatusFn          func(models.ReportStatus) (int64, error)
	countApprovedByAccusedFn func(uint) (int64, error)
}

func (s *reportRepoStub) Create(_ context.Context, report *models.Report) error {
	return s.createFn(report)
}
func (s *reportRepoStub) GetByID(_ context.Context, id uint) (*models.Report, error) {
	return s.getByIDFn(id)
}
func (s *reportRepoStub) List(_ context.Context, filter repository.ReportFilter) ([]models.Report, error) {
	return s.listFn(filter)
}
func (s *reportRepoStub) Resolve(_ context.Context, id uint, fields map[string]interface{}) error {
	return s.resolveFn(id, fields)
}
func (s *reportRepoStub) CountByStatus(_ context.Context, status models.ReportStatus) (int64, error) {
	return s.countByStatusFn(status)
}
func (s *reportRepoStub) CountApprovedByAccused(_ context.Context, accusedID uint) (int64, error) {
	return s.countApprovedByAccusedFn(accusedID)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createFn:                 func(*models.Report) error { return nil },
		getByIDFn:                func(id uint) (*models.Report, error) { return &models.Report{ID: id}, nil },
		listFn:                   func(repository.ReportFilter) ([]models.Report, error) { return nil, nil },
		resolveFn:                func(uint, map[string]interface{}) error { return nil },
		countByStatusFn:          func(models.ReportStatus) (int64, error) { return 0, nil },
		countApprovedByAccusedFn: func(uint) (int64, error) { return 0, nil },
	}
}

type banRepoStub struct {
	createFn          func(*models.Ban) error
	getByIDFn         func(uint) (*models.Ban, error)
	listByUserFn      func(uint) ([]models.Ban, error)
	listFn            func(int, int) ([]models.Ban, error)
	deleteFn          func(uint) error
	countFn           func() (int64, error)
	blacklistRiotIDFn func(string, uint) error
	isRiotIDBannedFn  func(string) (bool, error)
}

func (s *banRepoStub) Create(_ context.Context, ban *models.Ban) error { return s.createFn(ban) }
func (s *banRepoStub) GetByID(_ context.Context, id uint) (*models.Ban, error) {
	return s.getByIDFn(id)
}
func (s *banRepoStub) ListByUser(_ context.Context, userID uint) ([]models.Ban, error) {
	return s.listByUserFn(userID)
}
func (s *banRepoStub) List(_ context.Context, limit, offset int) ([]models.Ban, error) {
	return s.listFn(limit, offset)
}
func (s *banRepoStub) Delete(_ context.Context, id uint) error { return s.deleteFn(id) }
func (s *banRepoStub) Count(_ context.Context) (int64, error)  { return s.countFn() }
func (s *banRepoStub) BlacklistRiotID(_ context.Context, riotID string, userID uint) error {
	return s.blacklistRiotIDFn(riotID, userID)
}
func (s *banRepoStub) IsRiotIDBanned(_ context.Context, riotID string) (bool, error) {
	return s.isRiotIDBannedFn(riotID)
}

func noopBanRepo() *banRepoStub {
	return &banRepoStub{
		createFn:          func(*models.Ban) error { return nil },
		getByIDFn:         func(id uint) (*models.Ban, error) { return &models.Ban{ID: id}, nil },
		listByUserFn:      func(uint) ([]models.Ban, error) { return nil, nil },
		listFn:            func(int, int) ([]models.Ban, error) { return nil, nil },
		deleteFn:          func(uint) error { return nil },
		countFn:           func() (int64, error) { return 0, nil },
		blacklistRiotIDFn: func(string, uint) error { return nil },
		isRiotIDBannedFn:  func(string) (bool, error) { return false, nil },
	}
}

type queueRepoStub struct {
	joinFn      func(*models.QueueEntry) error
	leaveFn     func(uint) error
	getByUserFn func(uint) (*models.QueueEntry, error)
	listFn      func(int, int) ([]models.QueueEntry, error)
}

func (s *queueRepoStub) Join(_ context.Context, entry *models.QueueEntry) error {
	return s.joinFn(entry)
}
func (s *queueRepoStub) Leave(_ context.Context, userID uint) error { return s.leaveFn(userID) }
func (s *queueRepoStub) GetByUser(_ context.Context, userID uint) (*models.QueueEntry, error) {
	return s.getByUserFn(userID)
}
func (s *queueRepoStub) List(_ context.Context, limit, offset int) ([]models.QueueEntry, error) {
	return s.listFn(limit, offset)
}

func noopQueueRepo() *queueRepoStub {
	return &queueRepoStub{
		joinFn:      func(*models.QueueEntry) error { return nil },
		leaveFn:     func(uint) error { return nil },
		getByUserFn: func(uint) (*models.QueueEntry, error) { return nil, nil },
		listFn:      func(int, int) ([]models.QueueEntry, error) { return nil, nil },
	}
}

type codeRepoStub struct {
	createFn            func(*models.VerificationCode) error
	latestByEmailFn     func(string) (*models.VerificationCode, error)
	incrementAttemptsFn func(uint) error
	markUsedFn          func(uint, time.Time) error
	deleteExpiredFn     func(time.Time) (int64, error)
}

func (s *codeRepoStub) Create(_ context.Context, code *models.VerificationCode) error {
	return s.createFn(code)
}
func (s *codeRepoStub) LatestByEmail(_ context.Context, email string) (*models.VerificationCode, error) {
	return s.latestByEmailFn(email)
}
func (s *codeRepoStub) IncrementAttempts(_ context.Context, id uint) error {
	return s.incrementAttemptsFn(id)
}
func (s *codeRepoStub) MarkUsed(_ context.Context, id uint, usedAt time.Time) error {
	return s.markUsedFn(id, usedAt)
}
func (s *codeRepoStub) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return s.deleteExpiredFn(before)
}

func noopCodeRepo() *codeRepoStub {
	return &codeRepoStub{
		createFn:            func(*models.VerificationCode) error { return nil },
		latestByEmailFn:     func(string) (*models.VerificationCode, error) { return nil, nil },
		incrementAttemptsFn: func(uint) error { return nil },
		markUsedFn:          func(uint, time.Time) error { return nil },
		deleteExpiredFn:     func(time.Time) (int64, error) { return 0, nil },
	}
}

type matchResultRepoStub struct {
	insertFn            func(*models.MatchResult) (bool, error)
	getByRoomAndMatchFn func(uint, string) (*models.MatchResult, error)
	listByRoomFn        func(uint) ([]models.MatchResult, error)
}

func (s *matchResultRepoStub) Insert(_ context.Context, result *models.MatchResult) (bool, error) {
	return s.insertFn(result)
}
func (s *matchResultRepoStub) GetByRoomAndMatch(_ context.Context, roomID uint, matchID string) (*models.MatchResult, error) {
	return s.getByRoomAndMatchFn(roomID, matchID)
}
func (s *matchResultRepoStub) ListByRoom(_ context.Context, roomID uint) ([]models.MatchResult, error) {
	return s.listByRoomFn(roomID)
}

func noopMatchResultRepo() *matchResultRepoStub {
	return &matchResultRepoStub{
		insertFn:            func(*models.MatchResult) (bool, error) { return true, nil },
		getByRoomAndMatchFn: func(uint, string) (*models.MatchResult, error) { return &models.MatchResult{}, nil },
		listByRoomFn:        func(uint) ([]models.MatchResult, error) { return nil, nil },
	}
}

type matchAPIStub struct {
	matchIDsByPUUIDFn func(string, int) ([]string, error)
	matchByIDFn       func(string) (*riot.Match, error)
}

func (s *matchAPIStub) MatchIDsByPUUID(_ context.Context, puuid string, count int) ([]string, error) {
	return s.matchIDsByPUUIDFn(puuid, count)
}
func (s *matchAPIStub) MatchByID(_ context.Context, matchID string) (*riot.Match, error) {
	return s.matchByIDFn(matchID)
}
