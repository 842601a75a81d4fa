package crawlresult

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessJSONShape(t *testing.T) {
	result := Success("https://example.com/a", 200, 12345, "Title", "Extract text",
		[]string{"https://example.com/b"}, nil)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"url": "https://example.com/a",
		"status": 200,
		"timestamp": 12345,
		"content": {
			"title": "Title",
			"extract": "Extract text",
			"links": ["https://example.com/b"],
			"extra_links": [],
			"links_only": false
		},
		"error": null
	}`, string(data))
}

func TestSuccessWithNilLinksSerializesEmptyArrays(t *testing.T) {
	result := Success("https://example.com/a", 200, 1, "Title", "Extract", nil, nil)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"url": "https://example.com/a",
		"status": 200,
		"timestamp": 1,
		"content": {
			"title": "Title",
			"extract": "Extract",
			"links": [],
			"extra_links": [],
			"links_only": false
		},
		"error": null
	}`, string(data))
}

func TestRobotsDeniedJSONShape(t *testing.T) {
	result := RobotsDenied("https://example.com/a", 999)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"url": "https://example.com/a",
		"status": null,
		"timestamp": 999,
		"content": null,
		"error": {
			"name": "RobotsDenied",
			"message": "https://example.com/a disallowed by robots.txt"
		}
	}`, string(data))
}

func TestAbortJSONShapeWithoutStatus(t *testing.T) {
	result := Abort("https://example.com/a", 10, nil, errors.New("connection refused"))

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"url": "https://example.com/a",
		"status": null,
		"timestamp": 10,
		"content": null,
		"error": {
			"name": "AbortError",
			"message": "connection refused"
		}
	}`, string(data))
}

func TestNoResponseTextJSONShapeWithStatus(t *testing.T) {
	result := NoResponseText("https://example.com/a", 20, 204)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"url": "https://example.com/a",
		"status": 204,
		"timestamp": 20,
		"content": null,
		"error": {
			"name": "NoResponseText",
			"message": "response body was empty"
		}
	}`, string(data))
}
