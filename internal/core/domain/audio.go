package domain

import "math"

// AudioFeatures holds the per-track analysis values used for taste matching.
type AudioFeatures struct {
	TrackID      string  `json:"id,omitempty"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Acousticness float64 `json:"acousticness"`
}

// AudioProfile is the averaged fingerprint of a set of tracks.
// A missing profile is always represented as a nil *AudioProfile, never as a
// zero value.
type AudioProfile struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Acousticness float64 `json:"acousticness"`
}

// profilePrecision is the number of decimals kept on catalog profiles.
const profilePrecision = 3

// AggregateProfile returns the arithmetic mean of every feature across the
// given tracks. ok is false when features is empty.
func AggregateProfile(features []AudioFeatures) (profile AudioProfile, ok bool) {
	if len(features) == 0 {
		return AudioProfile{}, false
	}

	var sum AudioProfile
	for _, f := range features {
		sum.Danceability += f.Danceability
		sum.Energy += f.Energy
		sum.Valence += f.Valence
		sum.Acousticness += f.Acousticness
	}

	n := float64(len(features))
	return AudioProfile{
		Danceability: sum.Danceability / n,
		Energy:       sum.Energy / n,
		Valence:      sum.Valence / n,
		Acousticness: sum.Acousticness / n,
	}, true
}

// AggregateProfileRounded is AggregateProfile with every field rounded to
// three decimals, as stored in the enriched catalog.
func AggregateProfileRounded(features []AudioFeatures) (AudioProfile, bool) {
	p, ok := AggregateProfile(features)
	if !ok {
		return AudioProfile{}, false
	}
	return AudioProfile{
		Danceability: roundTo(p.Danceability, profilePrecision),
		Energy:       roundTo(p.Energy, profilePrecision),
		Valence:      roundTo(p.Valence, profilePrecision),
		Acousticness: roundTo(p.Acousticness, profilePrecision),
	}, true
}

// PresentFeatures drops the nil entries the API returns for tracks without
// analysis.
func PresentFeatures(in []*AudioFeatures) []AudioFeatures {
	out := make([]AudioFeatures, 0, len(in))
	for _, f := range in {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
