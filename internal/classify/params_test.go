package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	require.NoError(t, DefaultParams().WithMethod(MethodRankHaus).Validate())
	require.NoError(t, DefaultParams().WithKind(KindWords).Validate())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{"thresh too low", func(p *Params) { p.Thresh = 0.39 }, ErrBadThresh},
		{"thresh too high", func(p *Params) { p.Thresh = 0.99 }, ErrBadThresh},
		{"weight negative", func(p *Params) { p.WeightFactor = -0.1 }, ErrBadWeight},
		{"weight above one", func(p *Params) { p.WeightFactor = 1.5 }, ErrBadWeight},
		{"rank zero", func(p *Params) { p.Method = MethodRankHaus; p.Rank = 0 }, ErrBadRank},
		{"rank above one", func(p *Params) { p.Method = MethodRankHaus; p.Rank = 1.01 }, ErrBadRank},
		{"sel size zero", func(p *Params) { p.Method = MethodRankHaus; p.SelSize = 0 }, ErrBadSelSize},
		{"unknown method", func(p *Params) { p.Method = Method(9) }, ErrBadMethod},
		{"zero max width", func(p *Params) { p.MaxCompWidth = 0 }, ErrBadMaxSize},
		{"zero max height", func(p *Params) { p.MaxCompHeight = 0 }, ErrBadMaxSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			// A bad configuration never constructs a classifier.
			_, err = New(p)
			assert.Error(t, err)
		})
	}
}

func TestBoundaryThresholdsAreValid(t *testing.T) {
	p := DefaultParams()
	p.Thresh = MinThresh
	assert.NoError(t, p.Validate())
	p.Thresh = MaxThresh
	assert.NoError(t, p.Validate())
}
