package view

// Phase 要約処理の状態
type Phase int

const (
	// PhaseIdle 未送信またはクリア直後
	PhaseIdle Phase = iota
	// PhaseLoading 送信中
	PhaseLoading
	// PhaseSucceeded 要約取得済み
	PhaseSucceeded
	// PhaseFailed 要約失敗
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Display 結果エリアの表示状態
type Display string

const (
	DisplayLoading    Display = "loading"
	DisplayHasSummary Display = "has_summary"
	DisplayEmpty      Display = "empty"
)

// State Idle | Loading | Succeeded(text) | Failed(message)
//
// textはSucceededなら要約、Failedならユーザー向けメッセージ。それ以外では常に空。
type State struct {
	phase Phase
	text  string
}

// Idle 初期状態
func Idle() State { return State{phase: PhaseIdle} }

// Loading 送信中状態
func Loading() State { return State{phase: PhaseLoading} }

// Succeeded 要約取得済み状態
func Succeeded(summary string) State { return State{phase: PhaseSucceeded, text: summary} }

// Failed 失敗状態
func Failed(message string) State { return State{phase: PhaseFailed, text: message} }

// Phase 状態の種類
func (s State) Phase() Phase { return s.phase }

// IsLoading 送信中かどうか
func (s State) IsLoading() bool { return s.phase == PhaseLoading }

// Text 表示する要約またはメッセージ
func (s State) Text() string { return s.text }

// Display 表示状態を導出
func (s State) Display() Display {
	switch {
	case s.phase == PhaseLoading:
		return DisplayLoading
	case s.text != "":
		return DisplayHasSummary
	default:
		return DisplayEmpty
	}
}
