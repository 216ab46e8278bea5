package planner

import "errors"

var (
	// ErrBadRequest flags a preference set that cannot drive a generation.
	ErrBadRequest = errors.New("invalid preferences")
	// ErrNoCandidate means the destination quiz answers left no prefecture.
	ErrNoCandidate = errors.New("no destination matches the given answers")
)

// Persona is the voice the itinerary is written in.
type Persona struct {
	Name string `json:"name"`
	// Style is the phrase injected into the prompt that shapes the tone,
	// e.g. "経験豊富なプロの旅行プランナーとして、端的かつ的確に".
	Style string `json:"style"`
}

// Personas available to the UI, keyed by display name.
var Personas = map[string]Persona{
	"ベテラン": {Name: "ベテラン", Style: "経験豊富なプロの旅行プランナーとして、端的かつ的確に"},
	"姉さん":  {Name: "姉さん", Style: "地元に詳しい世話好きな姉さんとして、親しみやすい方言（例：関西弁や博多弁など、行き先に合わせて）を交えつつ元気に"},
	"ギャル":  {Name: "ギャル", Style: "最新トレンドに詳しい旅好きギャルとして、絵文字（💖✨）や若者言葉を多用し、テンション高めに"},
	"王子":   {Name: "王子", Style: "あなたの旅をエスコートする王子様として、優雅で少しキザな言葉遣いで情熱的に"},
}

// DefaultPersona is used when the caller names no planner.
var DefaultPersona = Persona{Name: "Okosy", Style: "プロの旅行プランナーとして"}

// PreferenceSet is one user's travel preferences, snapshotted at submission.
// It is passed by value through the pipeline and never mutated; a saved
// itinerary stores its own serialized copy.
type PreferenceSet struct {
	// Destination is a prefecture name, or UndecidedDestination to have one
	// derived from the quiz answers.
	Destination string `json:"destination"`
	Purpose     string `json:"purpose"`
	Companion   string `json:"companion"`
	Days        int    `json:"days"`
	Budget      string `json:"budget"`

	// Affinity scores, each 1-5.
	Nature   int `json:"nature"`
	Culture  int `json:"culture"`
	Art      int `json:"art"`
	Wellness int `json:"wellness"`

	FoodLocal string   `json:"food_local"`
	FoodStyle []string `json:"food_style"`
	AccomType string   `json:"accom_type"`
	Words     []string `json:"word"`
	MBTI      string   `json:"mbti"`
	FreeText  string   `json:"free_text"`

	// Destination quiz answers, used only when Destination is undecided.
	QuizSeaMountain string `json:"q0_sea_mountain"`
	QuizStyle       string `json:"q1_style"`
	QuizAtmosphere  string `json:"q2_atmosphere"`

	Persona Persona `json:"persona"`
}

// Validate checks the fields a generation cannot proceed without.
func (p PreferenceSet) Validate() error {
	if p.Days < 1 {
		return ErrBadRequest
	}
	return nil
}

// persona returns the effective persona, falling back to the default.
func (p PreferenceSet) persona() Persona {
	if p.Persona.Name == "" {
		return DefaultPersona
	}
	if p.Persona.Style == "" {
		if known, ok := Personas[p.Persona.Name]; ok {
			return known
		}
		return Persona{Name: p.Persona.Name, Style: DefaultPersona.Style}
	}
	return p.Persona
}

// GenerateRequest is one generation call: an immutable preference snapshot
// plus up to a few raw image buffers (the caller caps the count).
type GenerateRequest struct {
	Preferences PreferenceSet
	Images      [][]byte
}

// Result is what a generation yields. PlacesData is a JSON array string of
// the tool result payloads collected during the session, or nil when the
// model requested no tools.
type Result struct {
	Destination string
	Narrative   string
	PlacesData  *string
	Warnings    []string
}
