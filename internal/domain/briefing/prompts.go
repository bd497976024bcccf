package briefing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// summarizedSchedule is the field projection used by the weekly briefing.
type summarizedSchedule struct {
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Publisher   *string   `json:"publisher"`
	Customers   []string  `json:"customers"`
	Properties  []string  `json:"properties"`
	Contracts   []string  `json:"contracts"`
}

// detailedSchedule is the full projection used by analysis and daily briefings.
type detailedSchedule struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Type              string             `json:"type"`
	Date              time.Time          `json:"date"`
	Time              string             `json:"time"`
	Location          string             `json:"location"`
	Description       string             `json:"description"`
	Priority          string             `json:"priority"`
	Status            string             `json:"status"`
	RelatedCustomers  []Customer         `json:"relatedCustomers"`
	RelatedProperties []Property         `json:"relatedProperties"`
	RelatedContracts  []Contract         `json:"relatedContracts"`
	Publisher         *detailedPublisher `json:"publisher"`
	CreatedAt         time.Time          `json:"createdAt"`
}

type detailedPublisher struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func summarize(schedules []Schedule) []summarizedSchedule {
	out := make([]summarizedSchedule, 0, len(schedules))
	for _, s := range schedules {
		item := summarizedSchedule{
			Title:       s.Title,
			Date:        s.Date,
			Time:        s.Time,
			Type:        s.Type,
			Priority:    s.Priority,
			Status:      s.Status,
			Description: s.Description,
			Customers:   make([]string, 0, len(s.RelatedCustomers)),
			Properties:  make([]string, 0, len(s.RelatedProperties)),
			Contracts:   make([]string, 0, len(s.RelatedContracts)),
		}
		if s.Publisher != nil {
			name := s.Publisher.Name
			item.Publisher = &name
		}
		for _, c := range s.RelatedCustomers {
			item.Customers = append(item.Customers, c.Name)
		}
		for _, p := range s.RelatedProperties {
			item.Properties = append(item.Properties, p.Title)
		}
		for _, c := range s.RelatedContracts {
			item.Contracts = append(item.Contracts, c.ContractNumber)
		}
		out = append(out, item)
	}
	return out
}

func detail(schedules []Schedule) []detailedSchedule {
	out := make([]detailedSchedule, 0, len(schedules))
	for _, s := range schedules {
		item := detailedSchedule{
			ID:                s.ID,
			Title:             s.Title,
			Type:              s.Type,
			Date:              s.Date,
			Time:              s.Time,
			Location:          s.Location,
			Description:       s.Description,
			Priority:          s.Priority,
			Status:            s.Status,
			RelatedCustomers:  append(make([]Customer, 0, len(s.RelatedCustomers)), s.RelatedCustomers...),
			RelatedProperties: append(make([]Property, 0, len(s.RelatedProperties)), s.RelatedProperties...),
			RelatedContracts:  append(make([]Contract, 0, len(s.RelatedContracts)), s.RelatedContracts...),
			CreatedAt:         s.CreatedAt,
		}
		if s.Publisher != nil {
			item.Publisher = &detailedPublisher{ID: s.Publisher.ID, Name: s.Publisher.Name, Level: s.Publisher.Level}
		}
		out = append(out, item)
	}
	return out
}

// indentJSON renders v with two-space indentation and without HTML escaping.
func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// KoreanDateLabel renders t the way Korean locales print a short date, e.g. "2025. 3. 7.".
func KoreanDateLabel(t time.Time) string {
	return t.Format("2006. 1. 2.")
}

const weeklyBriefingTemplate = `
당신은 부동산 CRM 시스템의 AI 어시스턴트입니다.
사용자 "%s"의 이번 주 일정을 분석하여 효율적인 업무 관리를 위한 주간 브리핑을 작성해주세요.

일정 데이터:
%s

다음 형식으로 주간 브리핑을 작성해주세요:

## 📅 이번 주 업무 브리핑

### 📊 일정 개요
- 총 일정 수: X건
- 완료된 일정: X건
- 진행 중인 일정: X건
- 예정된 일정: X건

### 🎯 주요 업무 포인트
- 중요도가 높은 일정들
- 긴급도가 높은 일정들
- 고객 만남 일정들

### ⏰ 시간 관리 조언
- 효율적인 시간 배치 제안
- 이동 시간 고려사항
- 휴식 시간 권장사항

### 💼 고객 관리 전략
- 고객별 접근 방법
- 만남 전 준비사항
- 후속 관리 방안

### 🔄 개선 제안사항
- 일정 최적화 방안
- 업무 효율성 향상 방법
- 고객 만족도 향상 방안

한국어로 전문적이고 실용적인 조언을 제공해주세요.
`

const scheduleAnalysisTemplate = `
사용자의 일정을 분석하여 효율적인 업무 관리를 위한 상세한 조언을 제공하세요.

전체 일정 데이터(JSON):
%s

다음 형식으로 상세한 분석 보고서를 작성해주세요:

## 📊 일정 분석 보고서

### 📈 업무 패턴 분석
- 업무 유형별 분포 및 특징
- 시간대별 업무 밀도 분석
- 우선순위별 업무 분포
- 고객별 상담 패턴 분석

### ⏰ 시간 관리 개선점
- 효율적인 시간 배치 제안
- 이동 시간 고려사항
- 휴식 시간 권장사항
- 업무 집중도 최적화 방안

### 🎯 업무 우선순위 제안
- 중요도가 높은 업무 식별
- 긴급도에 따른 순서 조정
- 집중이 필요한 시간대 파악
- 고객별 우선순위 전략

### 💼 고객 관리 전략
- 고객별 접근 방법 제안
- 고객의 구체적인 요구사항 분석
- 만남 전 준비사항
- 후속 관리 방안
- 매물 추천 전략

### 🔄 개선 제안사항
- 일정 최적화 방안
- 업무 효율성 향상 방법
- 고객 만족도 향상 방안
- 스트레스 관리 팁
- 시스템 활용 개선점

한국어로 전문적이고 실용적인 조언을 제공해주세요.
`

const dailyBriefingTemplate = `
당신은 부동산 CRM 시스템의 AI 어시스턴트입니다.
사용자 "%[1]s"의 %[2]s 일정을 분석하여 오늘의 업무 브리핑을 작성해주세요.

일정 데이터:
%[3]s

다음 형식으로 브리핑을 작성해주세요:

## 📅 오늘의 업무 브리핑 (%[2]s)

### 🌅 오늘의 주요 업무
- 시간순으로 정리된 주요 업무 목록

### ⏰ 시간별 일정 안내
각 일정에 대해:
- 시간과 장소
- 준비사항
- 주의점

### 👥 만나는 사람들
- 고객/파트너 정보
- 각 만남의 목적과 중요도

### 💡 오늘의 성공 포인트
- 효율적인 업무 진행을 위한 조언
- 고객 만족도를 높이는 방법

### ⚠️ 주의사항
- 특별히 주의해야 할 점들

한국어로 친근하고 전문적인 톤으로 작성해주세요.
`

const meetingMessageTemplate = `
당신은 부동산 CRM 시스템의 AI 어시스턴트입니다.
고객과의 만남 전에 보낼 적절한 메시지를 추천해주세요.

일정 정보:
- 제목: %s
- 유형: %s
- 날짜: %s
- 시간: %s
- 장소: %s
- 설명: %s
- 우선순위: %s
- 상태: %s

고객 정보:
- 이름: %s
- 연락처: %s
- 이메일: %s

관련 매물 정보:
%s

다음 형식으로 메시지를 작성해주세요:

## 📱 추천 메시지

### 📞 전화 통화용 (간단한 확인)
"안녕하세요, [고객명]님! 내일 [시간]에 [장소]에서 만나기로 한 약속 확인차 연락드립니다. 혹시 시간이나 장소에 변경사항이 있으시면 말씀해 주세요. 내일 뵙겠습니다!"

### 💬 문자 메시지용 (상세한 안내)
"안녕하세요, [고객명]님! 내일 [날짜] [시간]에 [장소]에서 [업무유형] 관련 상담 예정입니다. 준비해주신 자료나 궁금한 점이 있으시면 미리 말씀해 주세요. 내일 뵙겠습니다! 😊"

### 📧 이메일용 (공식적인 안내)
"제목: [날짜] [업무유형] 상담 일정 안내

[고객명]님 안녕하세요.

내일 [날짜] [시간]에 [장소]에서 [업무유형] 관련 상담을 진행할 예정입니다.

상담 준비사항:
- [준비사항 1]
- [준비사항 2]

문의사항이 있으시면 언제든 연락주세요.
감사합니다."

각 메시지는 고객의 상황과 업무 유형에 맞게 조정해주세요.
친근하면서도 전문적인 톤을 유지해주세요.
`

// WeeklyBriefingPrompt builds the weekly briefing request from the summarized projection of schedules.
func WeeklyBriefingPrompt(schedules []Schedule, userName string) string {
	return fmt.Sprintf(weeklyBriefingTemplate, userName, indentJSON(summarize(schedules)))
}

// ScheduleAnalysisPrompt builds the analysis request from the full projection of schedules.
func ScheduleAnalysisPrompt(schedules []Schedule) string {
	return fmt.Sprintf(scheduleAnalysisTemplate, indentJSON(detail(schedules)))
}

// DailyBriefingPrompt builds the one-day briefing request. dateLabel is embedded verbatim.
func DailyBriefingPrompt(schedules []Schedule, userName, dateLabel string) string {
	return fmt.Sprintf(dailyBriefingTemplate, userName, dateLabel, indentJSON(detail(schedules)))
}

// MeetingMessagePrompt asks for phone, SMS and email drafts for one customer meeting.
func MeetingMessagePrompt(schedule Schedule, customer Customer) string {
	return fmt.Sprintf(meetingMessageTemplate,
		schedule.Title,
		schedule.Type,
		KoreanDateLabel(schedule.Date),
		schedule.Time,
		schedule.Location,
		orNone(schedule.Description),
		schedule.Priority,
		schedule.Status,
		customer.Name,
		customer.Phone,
		orNone(customer.Email),
		propertyLines(schedule.RelatedProperties),
	)
}

func propertyLines(properties []Property) string {
	if len(properties) == 0 {
		return "관련 매물 없음"
	}
	lines := make([]string, 0, len(properties))
	for _, p := range properties {
		lines = append(lines, fmt.Sprintf("- %s (%s)", p.Title, p.Address))
	}
	return strings.Join(lines, "\n")
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "없음"
	}
	return v
}
