package kv

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/anchorword/internal/models"
)

// GormStore implements Store on a SQL database through gorm. Every counter
// and score update is a single INSERT ... ON CONFLICT DO UPDATE statement.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the key-value tables and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(models.KVTables()...); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row models.KVValue
	err := s.db.WithContext(ctx).Where("store_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.KVValue{Key: key, Value: value}).Error
}

func (s *GormStore) SetNX(ctx context.Context, key, value string) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.KVValue{Key: key, Value: value})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.KVValue
		err := tx.Where("store_key = ?", key).Take(&current).Error
		switch {
		case err == nil:
			if _, perr := strconv.ParseInt(current.Value, 10, 64); perr != nil {
				return ErrNotInteger
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		row := models.KVValue{Key: key, Value: strconv.FormatInt(delta, 10)}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      gorm.Expr("CAST(CAST(kv_values.value AS BIGINT) + ? AS TEXT)", delta),
				"updated_at": time.Now(),
			}),
		}).Create(&row).Error; err != nil {
			return err
		}

		var updated models.KVValue
		if err := tx.Where("store_key = ?", key).Take(&updated).Error; err != nil {
			return err
		}
		v, err := strconv.ParseInt(updated.Value, 10, 64)
		if err != nil {
			return ErrNotInteger
		}
		n = v
		return nil
	})
	return n, err
}

func (s *GormStore) HSet(ctx context.Context, key, field, value string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}, {Name: "field"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.KVHashField{Key: key, Field: field, Value: value}).Error
}

func (s *GormStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	var row models.KVHashField
	err := s.db.WithContext(ctx).Where("store_key = ? AND field = ?", key, field).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *GormStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	var rows []models.KVHashField
	if err := s.db.WithContext(ctx).Where("store_key = ?", key).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value
	}
	return out, nil
}

func (s *GormStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([]models.KVSetMember, len(members))
	for i, m := range members {
		rows[i] = models.KVSetMember{Key: key, Member: m}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *GormStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.KVSetMember{}).
		Where("store_key = ? AND member = ?", key, member).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) SCard(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.KVSetMember{}).
		Where("store_key = ?", key).Count(&count).Error
	return count, err
}

func (s *GormStore) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	err := s.db.WithContext(ctx).Model(&models.KVSetMember{}).
		Where("store_key = ?", key).Order("member").Pluck("member", &members).Error
	return members, err
}

func (s *GormStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}, {Name: "member"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(&models.KVSortedMember{Key: key, Member: member, Score: score}).Error
}

func (s *GormStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	var score float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_key"}, {Name: "member"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score": gorm.Expr("kv_sorted_members.score + ?", delta),
			}),
		}).Create(&models.KVSortedMember{Key: key, Member: member, Score: delta}).Error; err != nil {
			return err
		}
		var row models.KVSortedMember
		if err := tx.Where("store_key = ? AND member = ?", key, member).Take(&row).Error; err != nil {
			return err
		}
		score = row.Score
		return nil
	})
	return score, err
}

func (s *GormStore) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	var row models.KVSortedMember
	err := s.db.WithContext(ctx).Where("store_key = ? AND member = ?", key, member).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.Score, true, nil
}

// ZRevRangeWithScores supports non-negative start and either a non-negative
// stop or -1 for "to the end".
func (s *GormStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	if start < 0 {
		start = 0
	}
	q := s.db.WithContext(ctx).Where("store_key = ?", key).
		Order("score DESC").Order("member DESC").Offset(int(start))
	if stop >= 0 {
		if stop < start {
			return []ScoredMember{}, nil
		}
		q = q.Limit(int(stop - start + 1))
	}
	var rows []models.KVSortedMember
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ScoredMember, len(rows))
	for i, r := range rows {
		out[i] = ScoredMember{Member: r.Member, Score: r.Score}
	}
	return out, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
