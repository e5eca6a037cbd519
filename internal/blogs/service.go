// Package blogs manages blog posts stored in a records collection.
package blogs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/karunyatrust/cms/internal/models"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/internal/storage"
	"github.com/karunyatrust/cms/pkg/logger"
)

var (
	ErrNotFound    = errors.New("blog not found")
	ErrInvalidPost = errors.New("invalid blog post")
)

// ImageFolder is the object store folder featured images are written to.
const ImageFolder = "blogs"

var log = logger.Named("blogs")

// Input carries the fields of a new post.
type Input struct {
	Title       string
	Slug        string
	Description string
	SubHeading  string
	Content     string
	Author      string
	Status      string
	PublishedAt time.Time
}

// Patch carries the fields of an update; nil fields are left unchanged.
type Patch struct {
	Title       *string
	Slug        *string
	Description *string
	SubHeading  *string
	Content     *string
	Author      *string
	Status      *string
	PublishedAt *time.Time
}

// Service implements the blog operations over a records collection.
type Service struct {
	records    *records.Collections
	collection string
	objects    storage.ObjectStore
	now        func() time.Time
}

func NewService(c *records.Collections, collection string, objects storage.ObjectStore) *Service {
	return &Service{records: c, collection: collection, objects: objects, now: func() time.Time { return time.Now().UTC() }}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title and joins its alphanumeric runs with dashes.
func Slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func validStatus(s string) bool {
	return s == models.StatusDraft || s == models.StatusPublished
}

func decodePosts(recs []records.Record) ([]models.BlogPost, error) {
	out := make([]models.BlogPost, 0, len(recs))
	for _, r := range recs {
		var p models.BlogPost
		if err := records.Decode(r, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) all(ctx context.Context) ([]models.BlogPost, error) {
	recs, err := s.records.Read(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	return decodePosts(recs)
}

// ListPublished returns published posts, newest publish time first.
func (s *Service) ListPublished(ctx context.Context) ([]models.BlogPost, error) {
	posts, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.BlogPost, 0, len(posts))
	for _, p := range posts {
		if p.IsPublished() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

// GetBySlug returns the first published post with exactly slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	posts, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug && posts[i].IsPublished() {
			return &posts[i], nil
		}
	}
	return nil, ErrNotFound
}

// ListAll returns every post, drafts included, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.BlogPost, error) {
	posts, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].SortTime().After(posts[j].SortTime()) })
	return posts, nil
}

func (s *Service) storeImage(ctx context.Context, img *storage.Upload) (key, ref string, err error) {
	if img == nil {
		return "", "", nil
	}
	if err := storage.ValidateImage(img); err != nil {
		return "", "", err
	}
	key = storage.NewKey(ImageFolder, img.Filename)
	if ref, err = storage.SaveAs(ctx, s.objects, key, img); err != nil {
		return "", "", err
	}
	return key, ref, nil
}

// discardImage removes an image stored for a write that did not happen.
func (s *Service) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := storage.Remove(context.WithoutCancel(ctx), s.objects, key); err != nil {
		log.Warnf("remove unused image %s: %v", key, err)
	}
}

// Create validates in, stores the optional image and prepends the new post.
func (s *Service) Create(ctx context.Context, in Input, img *storage.Upload) (*models.BlogPost, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPost)
	}
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !validStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPost, in.Status)
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	imageKey, image, err := s.storeImage(ctx, img)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.BlogPost{
		ID:            records.NewID(),
		Title:         in.Title,
		Slug:          in.Slug,
		Description:   in.Description,
		SubHeading:    in.SubHeading,
		Content:       in.Content,
		FeaturedImage: image,
		Author:        in.Author,
		Status:        in.Status,
		PublishedAt:   in.PublishedAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if post.PublishedAt.IsZero() {
		post.PublishedAt = now
	}
	rec, err := records.Encode(post)
	if err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	if _, err := s.records.Update(ctx, s.collection, func(recs []records.Record) ([]records.Record, error) {
		return append([]records.Record{rec}, recs...), nil
	}); err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	log.Infof("created post %s (%s)", post.ID, post.Status)
	return post, nil
}

// Update merges the supplied fields into post id in place.
func (s *Service) Update(ctx context.Context, id string, p Patch, img *storage.Upload) (*models.BlogPost, error) {
	if p.Status != nil && !validStatus(*p.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPost, *p.Status)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidPost)
	}
	if img != nil {
		if err := storage.ValidateImage(img); err != nil {
			return nil, err
		}
		// avoid storing an image for a post that does not exist
		posts, err := s.all(ctx)
		if err != nil {
			return nil, err
		}
		if indexOf(posts, id) < 0 {
			return nil, ErrNotFound
		}
	}
	imageKey, image, err := s.storeImage(ctx, img)
	if err != nil {
		return nil, err
	}

	var updated models.BlogPost
	_, err = s.records.Update(ctx, s.collection, func(recs []records.Record) ([]records.Record, error) {
		idx := -1
		for i, r := range recs {
			if r.ID() == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrNotFound
		}
		if err := records.Decode(recs[idx], &updated); err != nil {
			return nil, err
		}
		apply(&updated, p)
		if image != "" {
			updated.FeaturedImage = image
		}
		updated.UpdatedAt = s.now()

		rec, err := records.Encode(&updated)
		if err != nil {
			return nil, err
		}
		// fields this service does not model are carried over untouched
		merged := make(records.Record, len(recs[idx])+len(rec))
		for k, v := range recs[idx] {
			merged[k] = v
		}
		for k, v := range rec {
			merged[k] = v
		}
		if updated.SubHeading == "" {
			delete(merged, "subHeading")
		}
		out := make([]records.Record, len(recs))
		copy(out, recs)
		out[idx] = merged
		return out, nil
	})
	if err != nil {
		// the post may have been deleted after the existence check
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	return &updated, nil
}

func apply(post *models.BlogPost, p Patch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&post.Title, p.Title)
	set(&post.Slug, p.Slug)
	set(&post.Description, p.Description)
	set(&post.SubHeading, p.SubHeading)
	set(&post.Content, p.Content)
	set(&post.Author, p.Author)
	set(&post.Status, p.Status)
	if p.PublishedAt != nil {
		post.PublishedAt = *p.PublishedAt
	}
}

func indexOf(posts []models.BlogPost, id string) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

// Delete removes post id.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.records.Update(ctx, s.collection, func(recs []records.Record) ([]records.Record, error) {
		out := make([]records.Record, 0, len(recs))
		for _, r := range recs {
			if r.ID() != id {
				out = append(out, r)
			}
		}
		if len(out) == len(recs) {
			return nil, ErrNotFound
		}
		return out, nil
	})
	if err == nil {
		log.Infof("deleted post %s", id)
	}
	return err
}
