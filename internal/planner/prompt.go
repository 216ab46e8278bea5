package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// labelMarker guards against appending the image-label block twice.
const labelMarker = "【画像から読み取れた特徴（参考）】"

// promptPreferences is the taste profile embedded verbatim into the prompt
// as pretty-printed JSON so the model sees it the same way every run.
type promptPreferences struct {
	Nature          int      `json:"nature"`
	Culture         int      `json:"culture"`
	Art             int      `json:"art"`
	Wellness        int      `json:"wellness"`
	FoodLocal       string   `json:"food_local"`
	FoodStyle       []string `json:"food_style"`
	AccomType       string   `json:"accom_type"`
	Word            []string `json:"word"`
	MBTI            string   `json:"mbti"`
	QuizSeaMountain string   `json:"q0_sea_mountain"`
	QuizStyle       string   `json:"q1_style"`
	QuizAtmosphere  string   `json:"q2_atmosphere"`
}

// BuildPrompt renders the generation prompt for one preference set and the
// already-resolved destination.
func BuildPrompt(p PreferenceSet, destination string) string {
	persona := p.persona()
	prefs := promptPreferences{
		Nature:          p.Nature,
		Culture:         p.Culture,
		Art:             p.Art,
		Wellness:        p.Wellness,
		FoodLocal:       p.FoodLocal,
		FoodStyle:       p.FoodStyle,
		AccomType:       p.AccomType,
		Word:            p.Words,
		MBTI:            p.MBTI,
		QuizSeaMountain: p.QuizSeaMountain,
		QuizStyle:       p.QuizStyle,
		QuizAtmosphere:  p.QuizAtmosphere,
	}
	prefsJSON, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		prefsJSON = []byte("{}")
	}

	accom := p.AccomType
	if accom == "" {
		accom = "宿"
	}
	lunchWord := firstOr(p.Words, "おしゃれ")
	dinnerFood := firstOr(p.FoodStyle, "食事")
	stayWord := firstOr(p.Words, "温泉")
	sightWord := firstOr(p.Words, "観光")

	var b strings.Builder
	fmt.Fprintf(&b, `あなたは旅のプランナー「Okosy」です。ユーザーの入力情報をもとに、SNS映えや定番から少し離れた、ユーザー自身の感性に寄り添うような、パーソナルな旅のしおりを作成してください。
**ユーザーに最高の旅体験をデザインすることを最優先としてください。**
**【重要】ユーザーは具体的で最新の場所情報を求めています。そのため、以下の指示に従って必ず `+"`search_google_places`"+` ツールを使用してください。**

【基本情報】
- 行き先: %s
- 目的・気分: %s
- 同行者: %s
- 旅行日数: %d日
- 予算感: %s

【ユーザーの好み】
%s
★★★ 上記の好み（特に「自然」「歴史文化」「アート」「ウェルネス」の度合い、「気になるワード」、「MBTI（もしあれば）」）や、ユーザーがアップロードした好みの画像（もしあれば、画像ラベルとして後述）も考慮して、雰囲気や場所選びの参考にしてください。★★★

【出力指示】
1.  **構成:** 冒頭に、%sとして、なぜこの目的地(%s)を選んだのか、どんな旅になりそうか、全体の総括を **%s** 言葉で語ってください。その後、%d日間の旅程を、各日ごとに「午前」「午後」「夜」のセクションに分けて提案してください。時間的な流れが自然になるようにプランを組んでください。

2.  **内容:**
    * なぜその場所や過ごし方がユーザーの目的・気分・好みに合っているか、**%s言葉**で理由や提案コメントを添えてください。「気になるワード」の要素を意識的にプランに盛り込んでください。MBTIタイプも性格傾向を考慮するヒントにしてください。画像から読み取れた特徴も踏まえてください。
    * 隠れ家/定番のバランスはユーザーの好みに合わせてください。
    * 食事や宿泊の好みも反映してください。
    * **【説明の詳細度】** 各場所や体験について、情景が目に浮かぶような、**%sとして感情豊かに、魅力的で詳細な説明**を心がけてください。単なるリストアップではなく、そこで感じられるであろう雰囲気や感情、おすすめのポイントなどを描写してください。ユーザーの好みを反映した説明をお願いします。（文字数の目安は設けませんが、十分な情報量を提供してください）

3.  **【場所検索の実行 - 必須】** 以下の4種類の場所について、それぞれ **必ず `+"`search_google_places`"+` ツールを呼び出して** 最新の情報を取得してください。取得した情報は行程提案に **必ず** 反映させる必要があります。
    * **① 昼食:** `+"`place_type`"+`を 'restaurant' または 'cafe' として、ユーザーの好みに合う昼食場所を検索してください。（クエリ例: "%s ランチ %s"）**ツール呼び出しを実行してください。**
    * **② 夕食:** `+"`place_type`"+`を 'restaurant' として、ユーザーの好みに合う夕食場所を検索してください。（クエリ例: "%s ディナー %s 人気"）**ツール呼び出しを実行してください。**
    * **③ 宿泊:** `+"`place_type`"+`を 'lodging' として、ユーザーの宿泊タイプや好みに合う宿泊施設を検索してください。（クエリ例: "%s %s %s"）**ツール呼び出しを実行してください。**（宿泊タイプが「こだわらない」でも検索は実行すること）
    * **④ 観光地:** `+"`place_type`"+`を 'tourist_attraction', 'museum', 'park', 'art_gallery' 等からユーザーの好みに合うものを選択し、関連する観光スポットを検索してください。（クエリ例: "%s %s スポット"）**ツール呼び出しを実行してください。**

4.  **【検索結果の利用と表示】**
    * `+"`search_google_places`"+` ツールで得られた場所（レストラン、カフェ、宿、観光地など）を提案に含める際は、その場所名にGoogle Mapsへのリンクを **Markdown形式** で付与してください。**リンクのURLは `+"`https://www.google.com/maps/place/?q=place_id:<PLACE_ID>`"+` の形式**とし、`+"`<PLACE_ID>`"+` はツールの結果に含まれる `+"`place_id`"+` を使用してください。例: `+"`[レストラン名](https://www.google.com/maps/place/?q=place_id:ChIJN1t_tDeuEmsRUsoyG83frY4)`"+`
    * **【重要】** 場所名は**Markdownリンクの中にのみ**含めてください。リンクの前後で場所名を繰り返さないでください。
    * **各日の夜のパートには、ステップ③のツール検索結果から**、**必ず**最適な宿泊施設を1つ選び、その名前と上記形式のGoogle Mapsリンクを記載してください。もし検索結果がない場合や検索しなかった場合でも、一般的な宿泊エリアやタイプの提案をしてください。
    * 初日は必ず午前から始め、その際にホテルは出さないでください。また最終日は夜の情報を出力せずに午後で帰るようにしてください。
    * ツール検索でエラーが出たり、場所が見つからなかったりした場合は、無理に場所名を記載せず、その旨を行程中に記載してください。（例：「残念ながら条件に合う隠れ家カフェは見つかりませんでしたが、このエリアには素敵なカフェがたくさんありますよ。」）

5.  **形式:** 全体を読みやすい**Markdown形式**で出力してください。各日の区切り（例: `+"`--- 1日目 ---`"+`）、午前/午後/夜のセクション（例: `+"`**午前:**`"+`）などを明確にしてください。

%sとして、ユーザーに最高の旅体験をデザインしてください。`,
		destination, p.Purpose, p.Companion, p.Days, p.Budget,
		prefsJSON,
		persona.Name, destination, persona.Style, p.Days,
		persona.Style,
		persona.Style,
		destination, lunchWord,
		destination, dinnerFood,
		destination, accom, stayWord,
		destination, sightWord,
		persona.Name,
	)
	return b.String()
}

// appendLabelBlock appends the image-label hint to the user message. The
// block is added at most once, and both plain Content and MultiContent
// message shapes are handled.
func appendLabelBlock(msg *openai.ChatCompletionMessage, labels []string) {
	if len(labels) == 0 {
		return
	}
	block := labelMarker + "\n" + strings.Join(labels, ", ")

	if len(msg.MultiContent) > 0 {
		for i := range msg.MultiContent {
			part := &msg.MultiContent[i]
			if part.Type != openai.ChatMessagePartTypeText {
				continue
			}
			if !strings.Contains(part.Text, labelMarker) {
				part.Text += "\n\n" + block
			}
			return
		}
		msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: block,
		})
		return
	}

	if !strings.Contains(msg.Content, labelMarker) {
		msg.Content += "\n\n" + block
	}
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 && list[0] != "" {
		return list[0]
	}
	return fallback
}
