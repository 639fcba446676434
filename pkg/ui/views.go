package ui

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/ancestral-lingo/pkg/lesson"
	"github.com/smith3v/ancestral-lingo/pkg/progress"
	"github.com/smith3v/ancestral-lingo/pkg/session"
	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

const (
	heartIcon   = "❤️"
	streakIcon  = "🔥"
	xpIcon      = "⭐"
	speakerIcon = "🔊"
)

var languageRegions = map[vocab.Language]string{
	vocab.Kichwa: "Sierra",
	vocab.Shuar:  "Amazonía",
}

func LanguageTitle(lang vocab.Language) string {
	if region, ok := languageRegions[lang]; ok {
		return fmt.Sprintf("%s (%s)", lang.Label(), region)
	}
	return lang.Label()
}

// HomeModel is what the category screen needs. Resume names the category of
// an unfinished lesson in the selected language, if any.
type HomeModel struct {
	Language vocab.Language
	Progress progress.Progress
	Resume   vocab.CategoryID
}

func RenderHome(m HomeModel) (string, *models.InlineKeyboardMarkup, error) {
	toggleData, err := BuildSimpleCallback(ActionToggleLanguage)
	if err != nil {
		return "", nil, err
	}
	goalsData, err := BuildSimpleCallback(ActionGoals)
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf(
		"Ancestral Lingo\n%s Racha: %d   %s XP: %d\nIdioma: %s\n\nElige una lección:",
		streakIcon, m.Progress.Streak,
		xpIcon, m.Progress.Experience,
		LanguageTitle(m.Language),
	)

	rows := make([][]models.InlineKeyboardButton, 0, len(vocab.Categories)+2)
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "🔁 Cambiar a " + LanguageTitle(m.Language.Other()), CallbackData: toggleData},
	})
	for _, category := range vocab.Categories {
		data, err := BuildStartCallback(category.ID)
		if err != nil {
			return "", nil, err
		}
		label := category.Icon + " " + category.Title + " · " + category.NativeTitle
		if m.Progress.IsCompleted(m.Language, category.ID) {
			label += " ✅"
		} else if m.Resume == category.ID {
			label += " ⏯ Reanudar"
		}
		rows = append(rows, []models.InlineKeyboardButton{{Text: label, CallbackData: data}})
	}

	goalsLabel := "🎯 Metas y Logros"
	if n := progress.ClaimableCount(m.Progress); n > 0 {
		goalsLabel += fmt.Sprintf(" (%d)", n)
	}
	rows = append(rows, []models.InlineKeyboardButton{{Text: goalsLabel, CallbackData: goalsData}})

	return text, &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func RenderGoals(p progress.Progress) (string, *models.InlineKeyboardMarkup, error) {
	backData, err := BuildSimpleCallback(ActionHome)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("🎯 Metas y Logros\n")
	rows := make([][]models.InlineKeyboardButton, 0, len(progress.Achievements)+1)
	for _, a := range progress.Achievements {
		current := min(progress.Value(p, a.Metric), a.Threshold)
		status := fmt.Sprintf("%d/%d", current, a.Threshold)
		switch {
		case p.IsClaimed(a.ID):
			status = "✔ reclamado"
		case progress.Claimable(p, a):
			status = "¡completado!"
			data, err := BuildClaimCallback(a.ID)
			if err != nil {
				return "", nil, err
			}
			rows = append(rows, []models.InlineKeyboardButton{
				{Text: fmt.Sprintf("%s +%d XP · %s", a.Icon, a.Reward, a.Title), CallbackData: data},
			})
		}
		fmt.Fprintf(&b, "\n%s %s\n%s\n%s %s\n", a.Icon, a.Title, a.Description, progressBar(progress.Percent(p, a)), status)
	}
	rows = append(rows, []models.InlineKeyboardButton{{Text: "⬅ Volver", CallbackData: backData}})
	return b.String(), &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func RenderLesson(s session.Session) (string, *models.InlineKeyboardMarkup, error) {
	q, ok := s.Current()
	if !ok {
		return "", nil, errInvalidAction
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d   Pregunta %d/%d   %s\n\n", heartIcon, s.State.Hearts, s.Index+1, len(s.Questions), LanguageTitle(s.State.Language))

	var rows [][]models.InlineKeyboardButton
	var err error
	switch q.Kind {
	case lesson.KindTranslateToSpanish:
		b.WriteString("Traduce esta palabra:\n")
		fmt.Fprintf(&b, "%s %s\n", speakerIcon, q.Choice.Prompt)
		rows, err = choiceRows(s, q)
	case lesson.KindListening:
		b.WriteString("Escucha y selecciona la palabra:\n")
		fmt.Fprintf(&b, "%s Toca «Escuchar» para oírla de nuevo.\n", speakerIcon)
		rows, err = choiceRows(s, q)
	case lesson.KindMatching:
		b.WriteString("Selecciona los pares correctos:\n")
		b.WriteString(q.Matching.Instruction + "\n")
		rows, err = cardRows(s, q)
	}
	if err != nil {
		return "", nil, err
	}

	footer, err := lessonFooter(&b, s, q)
	if err != nil {
		return "", nil, err
	}
	rows = append(rows, footer...)
	return b.String(), &models.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func choiceRows(s session.Session, q lesson.Question) ([][]models.InlineKeyboardButton, error) {
	noop, err := BuildSimpleCallback(ActionNoop)
	if err != nil {
		return nil, err
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(q.Choice.Options))
	for i, option := range q.Choice.Options {
		label := option
		data := noop
		switch {
		case s.Status != session.StatusIdle && option == q.Choice.CorrectAnswer:
			label = "✅ " + option
		case s.Status == session.StatusIncorrect && option == s.SelectedOption:
			label = "❌ " + option
		case s.Status == session.StatusIdle:
			if option == s.SelectedOption {
				label = "👉 " + option
			}
			data, err = BuildOptionCallback(s.Index, i)
			if err != nil {
				return nil, err
			}
		}
		rows = append(rows, []models.InlineKeyboardButton{{Text: label, CallbackData: data}})
	}
	return rows, nil
}

// cardRows lays the board out two cards per row in shuffled order.
func cardRows(s session.Session, q lesson.Question) ([][]models.InlineKeyboardButton, error) {
	noop, err := BuildSimpleCallback(ActionNoop)
	if err != nil {
		return nil, err
	}
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, card := range q.Matching.Cards {
		label := card.Text
		data := noop
		switch {
		case s.IsMatched(card.MatchID):
			label = "✅ " + card.Text
		case card.ID == s.MismatchCard:
			label = "❌ " + card.Text
		case card.ID == s.SelectedCard:
			label = "👉 " + card.Text
		}
		if !s.IsMatched(card.MatchID) && s.Status == session.StatusIdle {
			data, err = BuildCardCallback(s.Index, card.ID)
			if err != nil {
				return nil, err
			}
		}
		row = append(row, models.InlineKeyboardButton{Text: label, CallbackData: data})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows, nil
}

func lessonFooter(b *strings.Builder, s session.Session, q lesson.Question) ([][]models.InlineKeyboardButton, error) {
	switch s.Status {
	case session.StatusCorrect:
		next, err := BuildSimpleCallback(ActionContinue)
		if err != nil {
			return nil, err
		}
		b.WriteString("\n¡Excelente!")
		return [][]models.InlineKeyboardButton{{{Text: "CONTINUAR", CallbackData: next}}}, nil
	case session.StatusIncorrect:
		next, err := BuildSimpleCallback(ActionContinue)
		if err != nil {
			return nil, err
		}
		if q.Kind.IsChoice() {
			fmt.Fprintf(b, "\nSolución: %s", q.Choice.CorrectAnswer)
		} else {
			b.WriteString("\n¡Te quedaste sin vidas!")
		}
		return [][]models.InlineKeyboardButton{{{Text: "ENTENDIDO", CallbackData: next}}}, nil
	}

	quit, err := BuildSimpleCallback(ActionQuit)
	if err != nil {
		return nil, err
	}
	row := []models.InlineKeyboardButton{{Text: "✖ Salir", CallbackData: quit}}
	if q.Kind.IsChoice() {
		say, err := BuildSimpleCallback(ActionSay)
		if err != nil {
			return nil, err
		}
		check, err := BuildSimpleCallback(ActionCheck)
		if err != nil {
			return nil, err
		}
		row = append(row,
			models.InlineKeyboardButton{Text: speakerIcon + " Escuchar", CallbackData: say},
			models.InlineKeyboardButton{Text: "COMPROBAR", CallbackData: check},
		)
	}
	return [][]models.InlineKeyboardButton{row}, nil
}

func RenderResult(s session.Session, p progress.Progress) (string, *models.InlineKeyboardMarkup, error) {
	home, err := BuildSimpleCallback(ActionHome)
	if err != nil {
		return "", nil, err
	}

	title := "¡Te quedaste sin vidas!"
	if s.Succeeded() {
		title = "¡Nivel Completado!"
	}
	text := fmt.Sprintf(
		"%s\n\n%s XP ganada: +%d\n%s XP Total: %d\n%s Racha: %d días",
		title,
		xpIcon, s.State.LessonXP,
		xpIcon, p.Experience,
		streakIcon, p.Streak,
	)

	row := []models.InlineKeyboardButton{{Text: "CONTINUAR", CallbackData: home}}
	if !s.Succeeded() {
		retry, err := BuildSimpleCallback(ActionRetry)
		if err != nil {
			return "", nil, err
		}
		row = []models.InlineKeyboardButton{
			{Text: "INTENTAR DE NUEVO", CallbackData: retry},
			{Text: "Inicio", CallbackData: home},
		}
	}
	return text, &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}, nil
}

func progressBar(percent int) string {
	const width = 10
	filled := min(max(percent, 0), 100) * width / 100
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}
