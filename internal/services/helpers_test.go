package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercadito/backoffice/internal/config"
	"github.com/mercadito/backoffice/internal/models"
)

// pngHeader is the smallest prefix accepted as a PNG by the upload check.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0}

type memoryCache struct {
	mu      sync.Mutex
	data    map[string]string
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
		c.deletes++
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func localStorage(t testing.TB) *StorageService {
	storage, _ := NewStorageService(config.AWSConfig{
		LocalBaseURL:  "http://media.test",
		LocalMediaDir: t.TempDir(),
	})
	return storage
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.UserRoleClient,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword("secreto123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBusiness(t *testing.T, db *gorm.DB, username string) (*models.User, *models.Business) {
	t.Helper()

	user := createUser(t, db, username)
	business := &models.Business{UserID: user.ID, Name: "Tienda " + username}
	require.NoError(t, db.Create(business).Error)
	return user, business
}

func createCategory(t *testing.T, db *gorm.DB, business *models.Business, nombre string) *models.Category {
	t.Helper()

	category := &models.Category{BusinessID: business.ID, Nombre: nombre}
	require.NoError(t, db.Create(category).Error)
	return category
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}

func imageFileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imagenes"; filename="%s"`, name))
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["imagenes"]
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func unitPtr(u models.UnitOfMeasure) *models.UnitOfMeasure { return &u }
