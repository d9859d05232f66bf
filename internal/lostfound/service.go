// Package lostfound implements the lost and found boards: items, their
// images and comment threads.
package lostfound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"universe/internal/apperr"
	"universe/internal/imaging"
	"universe/internal/metrics"
	"universe/internal/model"
	"universe/internal/repository"
	"universe/internal/storage"
)

// Broadcaster fans new comments out to live subscribers.
type Broadcaster interface {
	Broadcast(topic string, v any)
}

type Options struct {
	MaxFiles     int
	MaxBytes     int64
	MaxDimension int
}

type Service struct {
	store   *repository.Store
	files   storage.Store
	hub     Broadcaster
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	opts    Options
	now     func() time.Time
}

func NewService(store *repository.Store, files storage.Store, hub Broadcaster, m *metrics.Metrics, log logrus.FieldLogger, opts Options) *Service {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	return &Service{
		store:   store,
		files:   files,
		hub:     hub,
		metrics: m,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

func failed(action string, kind model.ItemKind, err error) error {
	return apperr.Internal(fmt.Sprintf("Failed to %s %s", action, strings.ToLower(kind.Label())), err)
}

// Create stores the uploads, then inserts the item and its image rows in one
// transaction. Stored files are removed again when the transaction fails.
// The returned item carries no images; clients read them through Images.
func (s *Service) Create(ctx context.Context, kind model.ItemKind, userID int64, in CreateInput, uploads []Upload) (model.Item, error) {
	params, err := in.validate(kind, s.now())
	if err != nil {
		return model.Item{}, err
	}
	if err := checkUploads(uploads, s.opts.MaxFiles, s.opts.MaxBytes); err != nil {
		return model.Item{}, err
	}

	urls, err := s.saveImages(ctx, uploads)
	if err != nil {
		return model.Item{}, err
	}

	var item model.Item
	err = s.store.WithTx(ctx, func(q *repository.Queries) error {
		item, err = q.CreateItem(ctx, kind, userID, params.name, params.location, params.description, params.date)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		for _, url := range urls {
			if err := q.AddItemImage(ctx, kind, item.ID, url); err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, urls)
		return model.Item{}, failed("create", kind, err)
	}

	s.metrics.ItemCreated(string(kind))
	s.log.WithFields(logrus.Fields{"kind": kind, "item_id": item.ID, "images": len(urls)}).Info("item created")
	return item, nil
}

func (s *Service) saveImages(ctx context.Context, uploads []Upload) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		data, err := imaging.NormalizeToJPEG(u.Data, s.opts.MaxDimension)
		if err != nil {
			s.discard(ctx, urls)
			switch {
			case errors.Is(err, imaging.ErrTooLarge):
				return nil, apperr.BadRequest("Image too large")
			case errors.Is(err, imaging.ErrUnsupported):
				return nil, apperr.BadRequest("Unsupported image type")
			}
			return nil, apperr.BadRequest("Invalid image")
		}
		url, err := s.files.Save(ctx, uuid.NewString()+".jpg", bytes.NewReader(data))
		if err != nil {
			s.discard(ctx, urls)
			return nil, apperr.Internal("Failed to store image", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *Service) discard(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := s.files.Delete(ctx, url); err != nil {
			s.log.WithError(err).WithField("url", url).Warn("orphaned upload not removed")
		}
	}
}

type ListResult struct {
	Items []model.Item
	Total int64
}

func (s *Service) List(ctx context.Context, kind model.ItemKind, f repository.ItemFilter) (ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	fail := func(err error) error {
		return apperr.Internal(fmt.Sprintf("Failed to fetch %ss", strings.ToLower(kind.Label())), err)
	}
	items, err := s.store.ListItems(ctx, kind, f)
	if err != nil {
		return ListResult{}, fail(err)
	}
	total, err := s.store.CountItems(ctx, kind, f)
	if err != nil {
		return ListResult{}, fail(err)
	}
	for i := range items {
		thumb, err := s.store.ItemThumbnail(ctx, kind, items[i].ID)
		if err != nil {
			return ListResult{}, fail(err)
		}
		items[i].ImageURL = thumb
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, kind model.ItemKind, itemID int64) (model.Item, error) {
	item, err := s.store.GetItem(ctx, kind, itemID)
	if repository.IsNotFound(err) {
		return model.Item{}, apperr.NotFound(kind.Label() + " not found")
	}
	if err != nil {
		return model.Item{}, failed("fetch", kind, err)
	}
	images, err := s.store.ItemImages(ctx, kind, itemID)
	if err != nil {
		return model.Item{}, failed("fetch", kind, err)
	}
	item.Images = images
	if len(images) > 0 {
		item.ImageURL = &images[0]
	}
	return item, nil
}

// Resolve marks an item resolved by userID. Any authenticated user may
// resolve any item.
func (s *Service) Resolve(ctx context.Context, kind model.ItemKind, itemID, userID int64) error {
	ok, err := s.store.ResolveItem(ctx, kind, itemID, userID)
	if err != nil {
		return failed("resolve", kind, err)
	}
	if ok {
		return nil
	}
	exists, err := s.store.ItemExists(ctx, kind, itemID)
	if err != nil {
		return failed("resolve", kind, err)
	}
	if !exists {
		return apperr.NotFound(kind.Label() + " not found")
	}
	return apperr.BadRequest("Item is already resolved")
}

func (s *Service) AddComment(ctx context.Context, kind model.ItemKind, itemID, userID int64, content string) (model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return model.Comment{}, apperr.BadRequest("Comment content is required")
	}
	comment, err := s.store.CreateComment(ctx, userID, kind, itemID, content)
	if err != nil {
		return model.Comment{}, apperr.Internal("Failed to add comment", err)
	}
	if s.hub != nil {
		s.hub.Broadcast(comment.Topic(), comment)
	}
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, kind model.ItemKind, itemID int64) ([]model.Comment, error) {
	comments, err := s.store.ListComments(ctx, kind, itemID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch comments", err)
	}
	return comments, nil
}

func (s *Service) Images(ctx context.Context, kind model.ItemKind, itemID int64) ([]string, error) {
	images, err := s.store.ItemImages(ctx, kind, itemID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch images", err)
	}
	return images, nil
}
