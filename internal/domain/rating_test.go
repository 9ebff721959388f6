package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingOrdinals(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, int(RatingAgain))
	assert.Equal(t, 2, int(RatingHard))
	assert.Equal(t, 3, int(RatingGood))
	assert.Equal(t, 4, int(RatingEasy))
}

func TestParseRating(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		input   string
		want    Rating
		wantErr bool
	}{
		{"again", RatingAgain, false},
		{"hard", RatingHard, false},
		{"good", RatingGood, false},
		{"easy", RatingEasy, false},
		{"Good", 0, true},
		{"", 0, true},
		{"perfect", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseRating(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.input, got.String())
		})
	}
}

func TestRatingUnmarshalJSON(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		input   string
		want    Rating
		wantErr bool
	}{
		{`"hard"`, RatingHard, false},
		{`3`, RatingGood, false},
		{`1`, RatingAgain, false},
		{`4`, RatingEasy, false},
		{`null`, 0, false},
		{`0`, 0, true},
		{`5`, 0, true},
		{`2.5`, 0, true},
		{`"3"`, 0, true},
		{`true`, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			var got Rating
			err := json.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRatingValidity(t *testing.T) {
	t.Parallel()
	assert.False(t, Rating(0).IsValid())
	assert.False(t, Rating(5).IsValid())
	assert.Equal(t, "Rating(5)", Rating(5).String())

	_, err := Rating(0).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestStateText(t *testing.T) {
	t.Parallel()
	for _, s := range []State{StateNew, StateLearning, StateReview, StateRelearning} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var decoded State
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, s, decoded)
	}

	assert.Equal(t, "State(9)", State(9).String())
	_, err := State(-1).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidState)

	var s State
	assert.ErrorIs(t, s.UnmarshalText([]byte("graduated")), ErrInvalidState)
}
