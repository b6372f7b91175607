package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"neubott/internal/model"
)

// factRow is the GORM mapping of the facts table. Uniqueness is enforced on
// the SHA-256 of the content so it is byte exact whatever the server collation,
// and the content itself has no length cap.
type factRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Content     string `gorm:"type:text CHARACTER SET utf8mb4 COLLATE utf8mb4_bin;not null"`
	ContentHash []byte `gorm:"type:binary(32);not null;uniqueIndex"`
	Guild       string `gorm:"type:varchar(64);not null;default:'';index"`
	Global      bool   `gorm:"not null;default:false"`
	AddedBy     string `gorm:"type:varchar(64);not null;default:''"`
	Timestamp   int64  `gorm:"not null;default:0;index"`
}

func contentHash(content string) []byte {
	sum := sha256.Sum256([]byte(content))
	return sum[:]
}

func (factRow) TableName() string { return "facts" }

func (r factRow) toModel() model.Fact {
	return model.Fact{
		ID:        r.ID,
		Content:   r.Content,
		GuildID:   r.Guild,
		Global:    r.Global,
		AddedBy:   r.AddedBy,
		CreatedAt: time.UnixMilli(r.Timestamp).UTC(),
	}
}

// Gorm implements Facts on top of any GORM dialector (MySQL in production).
type Gorm struct {
	db *gorm.DB
}

// NewGorm opens the database through dialector and migrates the facts table.
func NewGorm(dialector gorm.Dialector) (*Gorm, error) {
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := db.AutoMigrate(&factRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

// Close closes the underlying connection pool.
func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}

// CreateFact inserts a new fact and populates its ID.
func (g *Gorm) CreateFact(ctx context.Context, f *model.Fact) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	row := factRow{
		Content:     f.Content,
		ContentHash: contentHash(f.Content),
		Guild:       f.GuildID,
		Global:      f.Global,
		AddedBy:     f.AddedBy,
		Timestamp:   f.CreatedAt.UnixMilli(),
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateContent
		}
		return fmt.Errorf("insert fact: %w", err)
	}
	f.ID = row.ID
	f.CreatedAt = time.UnixMilli(row.Timestamp).UTC()
	return nil
}

// ListVisibleFacts returns every fact visible in the given guild.
func (g *Gorm) ListVisibleFacts(ctx context.Context, guildID string) ([]model.Fact, error) {
	return g.findVisible(g.db.WithContext(ctx), guildID)
}

// FindFactsByContent returns visible facts whose content equals content exactly.
func (g *Gorm) FindFactsByContent(ctx context.Context, guildID, content string) ([]model.Fact, error) {
	return g.findVisible(g.db.WithContext(ctx).Where("content_hash = ?", contentHash(content)), guildID)
}

// SearchFacts returns visible facts whose content contains substring, case-sensitively.
func (g *Gorm) SearchFacts(ctx context.Context, guildID, substring string) ([]model.Fact, error) {
	return g.filterVisible(ctx, guildID, func(c string) bool { return strings.Contains(c, substring) })
}

// LatestFact returns the most recently created fact of any scope.
func (g *Gorm) LatestFact(ctx context.Context) (*model.Fact, error) {
	var row factRow
	err := g.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest fact: %w", err)
	}
	f := row.toModel()
	return &f, nil
}

// DeleteFacts removes the facts with the given IDs.
func (g *Gorm) DeleteFacts(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := g.db.WithContext(ctx).Where("id IN ?", ids).Delete(&factRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete facts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountFacts returns the total number of stored facts.
func (g *Gorm) CountFacts(ctx context.Context) (int64, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&factRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count facts: %w", err)
	}
	return n, nil
}

func (g *Gorm) findVisible(tx *gorm.DB, guildID string) ([]model.Fact, error) {
	var rows []factRow
	err := tx.Where("(guild = ? OR global = ?)", guildID, true).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	facts := make([]model.Fact, 0, len(rows))
	for _, r := range rows {
		facts = append(facts, r.toModel())
	}
	return facts, nil
}

func (g *Gorm) filterVisible(ctx context.Context, guildID string, keep func(string) bool) ([]model.Fact, error) {
	all, err := g.ListVisibleFacts(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var out []model.Fact
	for _, f := range all {
		if keep(f.Content) {
			out = append(out, f)
		}
	}
	return out, nil
}
