package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "json fence",
			raw:  "```json\n[{\"$match\": {}}]\n```",
			want: `[{"$match": {}}]`,
		},
		{
			name: "bare fence",
			raw:  "```\n[{\"$match\": {}}]\n```",
			want: `[{"$match": {}}]`,
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\n  ```json\n[]\n```  \n",
			want: `[]`,
		},
		{
			name: "single line fence",
			raw:  "```[{\"$limit\": 5}]```",
			want: `[{"$limit": 5}]`,
		},
		{
			name: "no markers",
			raw:  `[{"$limit": 5}]`,
			want: `[{"$limit": 5}]`,
		},
		{
			name: "interior fence text untouched",
			raw:  "```json\n[{\"$match\": {\"productName\": \"```\"}}]\n```",
			want: "[{\"$match\": {\"productName\": \"```\"}}]",
		},
		{
			name: "only a trailing fence",
			raw:  "[{\"$limit\": 1}]\n```",
			want: `[{"$limit": 1}]`,
		},
		{
			name: "sentinel passes through",
			raw:  GenerationFailedSentinel,
			want: GenerationFailedSentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestSanitize_IdentityWithoutMarkers(t *testing.T) {
	inputs := []string{
		`[]`,
		`[{"$match": {"region": "West"}}, {"$sort": {"sales": -1}}]`,
		"[\n  {\"$group\": {\"_id\": \"$region\"}}\n]",
		GenerationFailedSentinel,
	}
	for _, in := range inputs {
		require.Equal(t, in, Sanitize(in))
		require.Equal(t, Sanitize(in), Sanitize(Sanitize(in)))
	}
}

func TestParse_PreservesStageAndKeyOrder(t *testing.T) {
	p, err := Parse(`[
		{"$match": {"region": "West", "segment": "Consumer"}},
		{"$group": {"_id": "$category", "total": {"$sum": "$sales"}}},
		{"$sort": {"total": -1, "_id": 1}}
	]`)
	require.NoError(t, err)

	want := Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "region", Value: "West"}, {Key: "segment", Value: "Consumer"}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$sales"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: int32(-1)}, {Key: "_id", Value: int32(1)}}}},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("unexpected pipeline (-want +got):\n%s", diff)
	}
}

func TestParse_ExtendedJSONDates(t *testing.T) {
	p, err := Parse(`[{"$match": {"orderDate": {"$gte": {"$date": "2016-01-01T00:00:00Z"}}}}]`)
	require.NoError(t, err)
	require.Len(t, p, 1)

	match := p[0][0].Value.(bson.D)
	gte := match[0].Value.(bson.D)
	require.Equal(t, "$gte", gte[0].Key)
	require.Equal(t, primitive.NewDateTimeFromTime(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)), gte[0].Value)
}

func TestParse_EmptyArray(t *testing.T) {
	p, err := Parse(`[]`)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Empty(t, p)
}

func TestParse_Malformed(t *testing.T) {
	inputs := map[string]string{
		"empty":            "",
		"whitespace":       "   \n",
		"prose":            "Here is your pipeline!",
		"sentinel":         GenerationFailedSentinel,
		"object":           `{"$match": {}}`,
		"scalar elements":  `[1, 2, 3]`,
		"string elements":  `["$match"]`,
		"truncated":        `[{"$match": {"region": "West"}`,
		"trailing garbage": `[{"$match": {}}] and then some`,
		"trailing bracket": `[{"$limit": 1}] garbage ]`,
		"two arrays":       `[{"$limit": 1}] [{"$limit": 2}]`,
		"null element":     `[null]`,
		"trailing null":    `[{"$match": {}}, null]`,
		"nested array":     `[[{"$match": {}}]]`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			p, err := Parse(in)
			require.Error(t, err)
			assert.Nil(t, p)

			var malformed *MalformedPipelineError
			require.True(t, errors.As(err, &malformed), "expected MalformedPipelineError, got %T", err)
			assert.Equal(t, in, malformed.Text)

			var execErr *ExecutionError
			assert.False(t, errors.As(err, &execErr))
		})
	}
}

func TestSanitizeAndParse_ReturnsCleanedTextOnFailure(t *testing.T) {
	text, p, err := SanitizeAndParse("```json\nnot a pipeline\n```")
	require.Error(t, err)
	require.Nil(t, p)
	require.Equal(t, "not a pipeline", text)
}
