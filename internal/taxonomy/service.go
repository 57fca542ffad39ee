// Package taxonomy manages the categories and tags manuals are filed under.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"manualdesk/internal/apperr"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"
	"manualdesk/internal/slugs"

	"gorm.io/gorm"
)

type Service struct {
	Categories *Store[models.Category]
	Tags       *Store[models.Tag]
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		Categories: &Store[models.Category]{
			db:      db,
			table:   "categories",
			label:   "category",
			maxName: 200,
			build:   func(name, slug string) *models.Category { return &models.Category{Name: name, Slug: slug} },
			// руководства остаются без категории
			detach: func(tx *gorm.DB, id uint) error {
				return tx.Model(&models.Manual{}).Where("category_id = ?", id).Update("category_id", nil).Error
			},
		},
		Tags: &Store[models.Tag]{
			db:      db,
			table:   "tags",
			label:   "tag",
			maxName: 100,
			build:   func(name, slug string) *models.Tag { return &models.Tag{Name: name, Slug: slug} },
			detach: func(tx *gorm.DB, id uint) error {
				return tx.Exec("DELETE FROM manual_tags WHERE tag_id = ?", id).Error
			},
		},
	}
}

// Input is used for create and update. On update empty fields are kept.
type Input struct {
	Name string
	Slug string
}

// Store is the CRUD of one named, slugged reference table.
type Store[T any] struct {
	db      *gorm.DB
	table   string
	label   string
	maxName int
	build   func(name, slug string) *T
	detach  func(tx *gorm.DB, id uint) error
}

func (s *Store[T]) List(ctx context.Context, search string) ([]T, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T]) Get(ctx context.Context, id uint) (*T, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *Store[T]) get(db *gorm.DB, id uint) (*T, error) {
	item := new(T)
	if err := db.First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("%s %d not found", s.label, id)
		}
		return nil, err
	}
	return item, nil
}

// Create is open to every authenticated user.
func (s *Store[T]) Create(ctx context.Context, actor policy.Actor, in Input) (*T, error) {
	if actor.UserID == 0 {
		return nil, apperr.Authentication("authentication required")
	}
	name, err := s.cleanName(in.Name)
	if err != nil {
		return nil, err
	}

	var item *T
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkNameFree(tx, name, 0); err != nil {
			return err
		}
		slug, err := s.pickSlug(tx, in.Slug, name, 0)
		if err != nil {
			return err
		}
		item = s.build(name, slug)
		if err := tx.Create(item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.duplicate("name")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update renames an entry. Administrators only.
func (s *Store[T]) Update(ctx context.Context, actor policy.Actor, id uint, in Input) (*T, error) {
	if d := policy.Evaluate(policy.ManageTaxonomy, policy.Resource{}, actor); !d.Allowed {
		return nil, apperr.Permission("%s", d.Reason)
	}

	var item *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.get(tx, id); err != nil {
			return err
		}

		fields := map[string]any{}
		if strings.TrimSpace(in.Name) != "" {
			name, err := s.cleanName(in.Name)
			if err != nil {
				return err
			}
			if err := s.checkNameFree(tx, name, id); err != nil {
				return err
			}
			fields["name"] = name
		}
		if strings.TrimSpace(in.Slug) != "" {
			slug, err := s.pickSlug(tx, in.Slug, "", id)
			if err != nil {
				return err
			}
			fields["slug"] = slug
		}
		if len(fields) > 0 {
			if err := tx.Model(new(T)).Where("id = ?", id).Updates(fields).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return s.duplicate("name")
				}
				return err
			}
		}

		var err error
		item, err = s.get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the entry and detaches it from manuals. Administrators only.
func (s *Store[T]) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	if d := policy.Evaluate(policy.ManageTaxonomy, policy.Resource{}, actor); !d.Allowed {
		return apperr.Permission("%s", d.Reason)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.get(tx, id); err != nil {
			return err
		}
		if err := s.detach(tx, id); err != nil {
			return fmt.Errorf("detach %s %d: %w", s.label, id, err)
		}
		return tx.Delete(new(T), id).Error
	})
}

func (s *Store[T]) cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.ValidationFields("invalid name", map[string]string{"name": "This field may not be blank."})
	}
	if utf8.RuneCountInString(name) > s.maxName {
		return "", apperr.ValidationFields("invalid name", map[string]string{
			"name": fmt.Sprintf("Ensure this field has no more than %d characters.", s.maxName),
		})
	}
	return name, nil
}

func (s *Store[T]) checkNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Table(s.table).Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return s.duplicate("name")
	}
	return nil
}

// pickSlug uses the requested slug if it is free, otherwise derives a unique
// one from name.
func (s *Store[T]) pickSlug(tx *gorm.DB, requested, name string, exceptID uint) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		slug := slugs.Make(requested)
		if slug == "" {
			return "", apperr.ValidationFields("invalid slug", map[string]string{"slug": "Enter a valid slug."})
		}
		var count int64
		if err := tx.Table(s.table).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			return "", s.duplicate("slug")
		}
		return slug, nil
	}

	base := slugs.Make(name)
	if base == "" {
		base = s.label
	}
	return slugs.Unique(tx, s.table, base)
}

func (s *Store[T]) duplicate(field string) error {
	return apperr.ValidationFields(s.label+" already exists", map[string]string{
		field: fmt.Sprintf("A %s with this %s already exists.", s.label, field),
	})
}
