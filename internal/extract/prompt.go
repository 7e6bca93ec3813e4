package extract

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the extraction instructions for one scraped page.
// The answer format is a JSON array so that multi-place roundup posts yield
// one item per place. Image rules are spelled out per category because the
// models otherwise pick map captures and menu-board photos.
func BuildPrompt(target, pageText string) string {
	var b strings.Builder

	b.WriteString("당신은 지역 컨텐츠 큐레이터입니다. 아래 블로그 본문에서 ")
	if target != "" {
		fmt.Fprintf(&b, "'%s' 관련 ", target)
	}
	b.WriteString("장소 정보를 추출하세요.\n\n")

	b.WriteString(`규칙:
1. 본문에 소개된 장소마다 하나의 항목을 만듭니다. 장소가 하나면 항목도 하나입니다.
2. category는 "맛집", "카페", "숙소" 중 하나로 분류합니다.
3. image_url은 본문에 포함된 이미지 URL 중에서 고릅니다:
   - 맛집: 음식이 선명하게 보이는 근접 사진
   - 카페: 음료 또는 내부 공간이 보이는 사진
   - 숙소: 객실 또는 건물 외관 사진
   - 지도 캡처, 메뉴판, 흐릿한 사진, 글자 위주 썸네일은 제외합니다.
   - 적합한 이미지가 없으면 null로 두고 reason에 그 이유를 적습니다.
4. reason에는 선택한 이미지(또는 null인 이유)를 반드시 한 문장으로 설명합니다.
5. content는 장소에 대한 본문 내용을 요약하지 말고 정리해서 담습니다.

답변은 아래 형식의 JSON 배열만 출력하세요. 다른 텍스트는 출력하지 마세요.
[
  {
    "title": "장소 이름",
    "content": "장소 설명",
    "category": "맛집",
    "image_url": "https://... 또는 null",
    "reason": "이미지 선택 이유"
  }
]

본문:
`)
	b.WriteString(pageText)
	return b.String()
}
