package planner

import (
	"math/rand"
	"sort"
)

// README: Destination derivation for users who have not picked a prefecture.
// Three quiz answers each map to a candidate set; the intersection of the
// answered questions is the pool, and one prefecture is drawn at random.

// UndecidedDestination is the sentinel a caller sends when the user wants a
// destination derived from the quiz.
const UndecidedDestination = "まだ決まっていない"

// Quiz answer values.
const (
	AnswerSea      = "海"
	AnswerMountain = "山"
	AnswerEither   = "どちらでも"

	AnswerActive  = "アクティブに観光"
	AnswerRelaxed = "ゆったり過ごす"

	AnswerTraditional = "和の雰囲気"
	AnswerModern      = "モダン・都会的"
	AnswerNoPref      = "特にこだわらない"
)

// AllPrefectures lists the 47 prefectures in the standard JIS order.
var AllPrefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県",
	"岐阜県", "静岡県", "愛知県", "三重県",
	"滋賀県", "京都府", "大阪府", "兵庫県", "奈良県", "和歌山県",
	"鳥取県", "島根県", "岡山県", "広島県", "山口県", "徳島県", "香川県", "愛媛県", "高知県",
	"福岡県", "佐賀県", "長崎県", "熊本県", "大分県", "宮崎県", "鹿児島県",
	"沖縄県",
}

var seaMountainMap = map[string][]string{
	AnswerSea: {
		"茨城県", "千葉県", "神奈川県", "静岡県", "愛知県", "三重県", "徳島県", "香川県",
		"高知県", "福岡県", "佐賀県", "沖縄県", "和歌山県", "兵庫県", "岡山県", "広島県",
		"山口県", "愛媛県", "大分県", "宮崎県", "鹿児島県", "長崎県", "熊本県", "福井県",
		"石川県", "富山県", "新潟県", "東京都", "宮城県", "岩手県", "青森県", "北海道",
	},
	AnswerMountain: {
		"山形県", "栃木県", "群馬県", "山梨県", "長野県", "岐阜県", "滋賀県", "奈良県",
		"埼玉県", "福島県", "秋田県",
	},
	AnswerEither: AllPrefectures,
}

var styleMap = map[string][]string{
	AnswerActive: {
		"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県", "茨城県",
		"栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県", "新潟県", "富山県",
		"石川県", "福井県", "長野県", "岐阜県", "静岡県", "愛知県", "三重県", "大阪府",
		"兵庫県", "広島県", "福岡県", "熊本県", "沖縄県",
	},
	AnswerRelaxed: {
		"山梨県", "滋賀県", "京都府", "奈良県", "和歌山県", "鳥取県", "島根県", "岡山県",
		"山口県", "徳島県", "香川県", "愛媛県", "高知県", "佐賀県", "長崎県", "大分県",
		"宮崎県", "鹿児島県", "沖縄県", "北海道", "青森県", "秋田県", "岩手県", "山形県",
		"福島県", "群馬県", "栃木県", "長野県", "岐阜県", "石川県", "富山県", "三重県",
	},
}

var atmosphereMap = map[string][]string{
	AnswerTraditional: {
		"青森県", "岩手県", "秋田県", "山形県", "福島県", "栃木県", "群馬県", "新潟県",
		"富山県", "石川県", "福井県", "岐阜県", "三重県", "滋賀県", "京都府", "奈良県",
		"和歌山県", "鳥取県", "島根県", "山口県", "徳島県", "愛媛県", "佐賀県", "長崎県",
		"熊本県", "大分県", "鹿児島県", "岡山県", "広島県", "香川県", "高知県",
	},
	AnswerModern: {
		"北海道", "宮城県", "埼玉県", "千葉県", "東京都", "神奈川県", "静岡県", "愛知県",
		"京都府", "大阪府", "兵庫県", "広島県", "福岡県",
	},
	AnswerNoPref: AllPrefectures,
}

// DeriveDestination resolves the prefecture a generation targets. A decided
// destination passes through untouched. For an undecided one the three quiz
// answers are intersected (an unanswered question does not constrain) and a
// prefecture is drawn from the pool with rng, or the package rand when rng
// is nil. Returns ErrNoCandidate when the intersection is empty.
func DeriveDestination(p PreferenceSet, rng *rand.Rand) (string, error) {
	if p.Destination != "" && p.Destination != UndecidedDestination {
		return p.Destination, nil
	}

	candidates := make(map[string]bool, len(AllPrefectures))
	for _, pref := range AllPrefectures {
		candidates[pref] = true
	}
	restrict(candidates, seaMountainMap, p.QuizSeaMountain)
	restrict(candidates, styleMap, p.QuizStyle)
	restrict(candidates, atmosphereMap, p.QuizAtmosphere)

	if len(candidates) == 0 {
		return "", ErrNoCandidate
	}

	pool := make([]string, 0, len(candidates))
	for pref := range candidates {
		pool = append(pool, pref)
	}
	sort.Strings(pool)
	if rng != nil {
		return pool[rng.Intn(len(pool))], nil
	}
	return pool[rand.Intn(len(pool))], nil
}

// restrict intersects candidates with the set the answer maps to. Answers the
// mapping does not know (including the empty answer) leave candidates alone.
func restrict(candidates map[string]bool, mapping map[string][]string, answer string) {
	allowed, ok := mapping[answer]
	if !ok {
		return
	}
	set := make(map[string]bool, len(allowed))
	for _, pref := range allowed {
		set[pref] = true
	}
	for pref := range candidates {
		if !set[pref] {
			delete(candidates, pref)
		}
	}
}
