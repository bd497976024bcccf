package briefing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleSchedules() []Schedule {
	seoul := time.FixedZone("KST", 9*60*60)
	return []Schedule{
		{
			ID:          "s-1",
			Title:       "강남 아파트 매수 상담",
			Type:        "상담",
			Date:        time.Date(2025, 3, 3, 0, 0, 0, 0, seoul),
			Time:        "10:00",
			Location:    "강남 사무소",
			Description: "예산 10억 <이내>",
			Priority:    "높음",
			Status:      "예정",
			Publisher:   &Publisher{ID: "u-1", Name: "김중개", Level: 3},
			RelatedCustomers: []Customer{
				{ID: "c-1", Name: "이고객", Phone: "010-1111-2222", Email: "lee@example.com"},
			},
			RelatedProperties: []Property{{ID: "p-1", Title: "래미안 84㎡", Address: "서울 강남구"}},
			RelatedContracts:  []Contract{{ID: "k-1", ContractNumber: "CT-001", Type: "매매", Status: "진행"}},
			CompanyNumber:     "123-45-67890",
		},
		{
			ID:       "s-2",
			Title:    "월간 보고",
			Type:     "내부",
			Date:     time.Date(2025, 3, 5, 0, 0, 0, 0, seoul),
			Time:     "15:00",
			Priority: "보통",
			Status:   "예정",
		},
	}
}

func TestWeeklyBriefingPromptIsDeterministic(t *testing.T) {
	schedules := sampleSchedules()
	first := WeeklyBriefingPrompt(schedules, "김중개")
	second := WeeklyBriefingPrompt(schedules, "김중개")
	require.Equal(t, first, second)
	require.Contains(t, first, `사용자 "김중개"의 이번 주 일정을`)
	require.Contains(t, first, "### 📊 일정 개요")
	require.Contains(t, first, "### 🔄 개선 제안사항")
}

func TestWeeklyBriefingPromptUsesSummarizedProjection(t *testing.T) {
	prompt := WeeklyBriefingPrompt(sampleSchedules(), "김중개")

	require.Contains(t, prompt, `"publisher": "김중개"`)
	require.Contains(t, prompt, `"customers": [
      "이고객"
    ]`)
	require.Contains(t, prompt, `"contracts": [
      "CT-001"
    ]`)
	require.Contains(t, prompt, `"description": "예산 10억 <이내>"`)
	require.NotContains(t, prompt, "010-1111-2222")

	// the second schedule has no related records
	require.Contains(t, prompt, `"publisher": null`)
	require.Contains(t, prompt, `"customers": []`)
	require.Contains(t, prompt, `"properties": []`)
}

func TestPromptsPreserveScheduleOrder(t *testing.T) {
	schedules := sampleSchedules()
	reversed := []Schedule{schedules[1], schedules[0]}

	for _, build := range []func([]Schedule) string{
		func(s []Schedule) string { return WeeklyBriefingPrompt(s, "user") },
		ScheduleAnalysisPrompt,
		func(s []Schedule) string { return DailyBriefingPrompt(s, "user", "2025. 3. 3.") },
	} {
		forward := build(schedules)
		require.Less(t, strings.Index(forward, "강남 아파트 매수 상담"), strings.Index(forward, "월간 보고"))
		backward := build(reversed)
		require.Greater(t, strings.Index(backward, "강남 아파트 매수 상담"), strings.Index(backward, "월간 보고"))
	}
}

func TestScheduleAnalysisPromptEmbedsFullRecords(t *testing.T) {
	prompt := ScheduleAnalysisPrompt(sampleSchedules())

	require.Contains(t, prompt, "전체 일정 데이터(JSON):")
	require.Contains(t, prompt, `"phone": "010-1111-2222"`)
	require.Contains(t, prompt, `"address": "서울 강남구"`)
	require.Contains(t, prompt, `"relatedCustomers": []`)
	require.Contains(t, prompt, `"relatedContracts": []`)
	require.Contains(t, prompt, "### 📈 업무 패턴 분석")
	require.Contains(t, prompt, "2025-03-03T00:00:00+09:00")
}

func TestDailyBriefingPromptEmbedsDateLabelVerbatim(t *testing.T) {
	prompt := DailyBriefingPrompt(sampleSchedules()[:1], "김중개", "2025. 3. 3.")

	require.Contains(t, prompt, `사용자 "김중개"의 2025. 3. 3. 일정을`)
	require.Contains(t, prompt, "## 📅 오늘의 업무 브리핑 (2025. 3. 3.)")
	require.Contains(t, prompt, "### ⚠️ 주의사항")
}

func TestMeetingMessagePrompt(t *testing.T) {
	schedule := sampleSchedules()[0]
	prompt := MeetingMessagePrompt(schedule, schedule.RelatedCustomers[0])

	require.Contains(t, prompt, "- 제목: 강남 아파트 매수 상담")
	require.Contains(t, prompt, "- 날짜: 2025. 3. 3.")
	require.Contains(t, prompt, "- 이름: 이고객")
	require.Contains(t, prompt, "- 래미안 84㎡ (서울 강남구)")
	require.Contains(t, prompt, "### 📞 전화 통화용 (간단한 확인)")
	require.Contains(t, prompt, "### 💬 문자 메시지용 (상세한 안내)")
	require.Contains(t, prompt, "### 📧 이메일용 (공식적인 안내)")
	require.Contains(t, prompt, "[고객명]")
}

func TestMeetingMessagePromptDefaults(t *testing.T) {
	schedule := sampleSchedules()[1]
	prompt := MeetingMessagePrompt(schedule, Customer{Name: "박고객", Phone: "010-0000-0000"})

	require.Contains(t, prompt, "- 설명: 없음")
	require.Contains(t, prompt, "- 이메일: 없음")
	require.Contains(t, prompt, "관련 매물 없음")
}

func TestKoreanDateLabel(t *testing.T) {
	require.Equal(t, "2025. 12. 31.", KoreanDateLabel(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
	require.Equal(t, "2025. 3. 7.", KoreanDateLabel(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)))
}
