package controller_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minddrag/models"
)

// annotationFixture extends the dragable fixture with three annotations:
// a note and a url annotation on 23425 (visible to testuser) and a url
// annotation on 4711 (not visible to testuser).
func annotationFixture(t *testing.T) *testEnv {
	e := dragableFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "note_ann1",
		"dragable": "23425",
		"type":     "note",
		"note":     "this is the first note annotation",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "url_ann1",
		"dragable": "23425",
		"type":     "url",
		"url":      "http://example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser2"], fiber.Map{
		"hash":     "url_ann2",
		"dragable": "4711",
		"type":     "url",
		"url":      "http://google.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return e
}

func TestListAnnotations(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	annotations := decodeMaps(t, resp)
	hashes := make([]string, 0, len(annotations))
	for _, a := range annotations {
		hashes = append(hashes, a["hash"].(string))
	}
	assert.ElementsMatch(t, []string{"note_ann1", "url_ann1"}, hashes,
		"only annotations on dragables from the caller's teams are listed")
}

func TestGetAnnotation(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/note_ann1", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	annotation := decodeMap(t, resp)
	assert.Equal(t, "note_ann1", annotation["hash"])
	assert.Equal(t, "note", annotation["type"])
	assert.Equal(t, "23425", annotation["dragable"].(map[string]interface{})["hash"])
	assert.Equal(t, "testuser", annotation["created_by"].(map[string]interface{})["username"])
}

func TestGetInaccessibleAnnotation(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/url_ann2", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetNonexistentAnnotation(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/nosuchhash", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAnnotationsForDragable(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/?dragable=23425", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	annotations := decodeMaps(t, resp)
	hashes := make([]string, 0, len(annotations))
	for _, a := range annotations {
		hashes = append(hashes, a["hash"].(string))
	}
	assert.ElementsMatch(t, []string{"note_ann1", "url_ann1"}, hashes)
}

func TestListAnnotationsForInaccessibleDragable(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/?dragable=4711", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListAnnotationsForUnknownDragable(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodGet, "/api/1.0/annotations/?dragable=nosuchhash", e.tokens["testuser"], nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAnnotationUnauthenticated(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", "", fiber.Map{
		"hash":     "new_note_ann",
		"dragable": "23425",
		"type":     "note",
		"note":     "hello, world!",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateNoteAnnotation(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_note_ann",
		"dragable": "23425",
		"type":     "note",
		"note":     "hello, world!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var annotation models.Annotation
	require.NoError(t, e.db.Where("hash = ?", "new_note_ann").First(&annotation).Error)
	assert.Equal(t, models.AnnotationNote, annotation.Type)
	assert.Equal(t, "hello, world!", annotation.Note)
}

func TestCreateNoteAnnotationWithoutNote(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_note_ann",
		"dragable": "23425",
		"type":     "note",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateURLStyleAnnotations(t *testing.T) {
	e := annotationFixture(t)

	// image and video share the url path; file does too, since uploads are
	// not implemented and only the reference is stored.
	for _, typ := range []string{"url", "image", "video", "file"} {
		hash := "new_" + typ + "_ann"
		resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
			"hash":        hash,
			"dragable":    "23425",
			"type":        typ,
			"url":         "http://example.com/thing",
			"description": "bla blub",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, typ)

		var annotation models.Annotation
		require.NoError(t, e.db.Where("hash = ?", hash).First(&annotation).Error)
		assert.Equal(t, typ, annotation.Type)
		assert.Equal(t, "http://example.com/thing", annotation.URL)
		assert.Equal(t, "bla blub", annotation.Description)
	}
}

// Filename belongs to the file variant alone; the other url-style types drop
// it even when the caller sends one.
func TestCreateAnnotationFilenameOnlyForFiles(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_image_ann",
		"dragable": "23425",
		"type":     "image",
		"url":      "http://example.com/cat.png",
		"filename": "cat.png",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var annotation models.Annotation
	require.NoError(t, e.db.Where("hash = ?", "new_image_ann").First(&annotation).Error)
	assert.Empty(t, annotation.Filename)

	resp = e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_file_ann",
		"dragable": "23425",
		"type":     "file",
		"url":      "http://example.com/report.pdf",
		"filename": "report.pdf",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var fileAnnotation models.Annotation
	require.NoError(t, e.db.Where("hash = ?", "new_file_ann").First(&fileAnnotation).Error)
	assert.Equal(t, "report.pdf", fileAnnotation.Filename)
}

func TestCreateURLAnnotationWithoutURL(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_url_ann",
		"dragable": "23425",
		"type":     "url",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateConnectionAnnotation(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":         "new_connect_ann",
		"dragable":     "23425",
		"type":         "connection",
		"connected_to": "12345",
		"description":  "i've got connections",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var annotation models.Annotation
	require.NoError(t, e.db.Preload("ConnectedDragable").
		Where("hash = ?", "new_connect_ann").First(&annotation).Error)
	assert.Equal(t, models.AnnotationConnection, annotation.Type)
	require.NotNil(t, annotation.ConnectedDragable)
	assert.Equal(t, "12345", annotation.ConnectedDragable.Hash)
}

func TestCreateConnectionAnnotationToSelf(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":         "new_connect_ann",
		"dragable":     "23425",
		"type":         "connection",
		"connected_to": "23425",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateConnectionAnnotationUnknownTarget(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":         "new_connect_ann",
		"dragable":     "23425",
		"type":         "connection",
		"connected_to": "783459343",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAnnotationUnknownType(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_ann",
		"dragable": "23425",
		"type":     "hologram",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAnnotationUnknownDragable(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_ann",
		"dragable": "nosuchhash",
		"type":     "note",
		"note":     "hi",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAnnotationDuplicateHash(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "note_ann1",
		"dragable": "23425",
		"type":     "note",
		"note":     "hi",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int64
	e.db.Model(&models.Annotation{}).Where("hash = ?", "note_ann1").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateAnnotationNotTeamMember(t *testing.T) {
	e := annotationFixture(t)

	resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], fiber.Map{
		"hash":     "new_ann",
		"dragable": "4711",
		"type":     "note",
		"note":     "sneaky",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateAnnotationMissingRequiredFields(t *testing.T) {
	e := annotationFixture(t)

	full := map[string]string{
		"hash":     "new_ann",
		"dragable": "23425",
		"type":     "note",
	}

	for _, missing := range []string{"hash", "dragable", "type"} {
		body := fiber.Map{"note": "hi"}
		for k, v := range full {
			if k != missing {
				body[k] = v
			}
		}
		resp := e.request(http.MethodPost, "/api/1.0/annotations/", e.tokens["testuser"], body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing %s", missing)
	}
}
