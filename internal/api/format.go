package telegram

import (
	"fmt"
	"strings"

	app "resello/internal/application"
	"resello/internal/domain/entity"
)

func percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

func money(v float64, currency string) string {
	return fmt.Sprintf("%.0f %s", v, currency)
}

func formatViewPrompt(category entity.ProductCategory, view string) string {
	views := category.Views()
	for i, v := range views {
		if v == view {
			return fmt.Sprintf(msgAskView, i+1, len(views), view)
		}
	}
	return fmt.Sprintf(msgAskView, 0, len(views), view)
}

func formatViewResult(r entity.ViewValidationResult) string {
	var sb strings.Builder
	if r.Passed {
		fmt.Fprintf(&sb, "✅ Ракурс «%s» принят", r.ViewName)
		if r.Info != nil {
			fmt.Fprintf(&sb, " (уверенность %s)", percent(r.Info.Confidence))
		}
	} else {
		fmt.Fprintf(&sb, "❌ Ракурс «%s» не принят:", r.ViewName)
		for _, reason := range r.Reasons {
			sb.WriteString("\n• " + reason)
		}
	}
	for _, w := range r.Warnings {
		sb.WriteString("\n⚠️ " + w)
	}
	return sb.String()
}

func formatProgress(p *app.Progress) string {
	insp := p.Inspection
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %s (%s), в использовании %g г.\n", insp.ProductName, insp.Category, insp.UsageYears)
	for i, v := range p.Views {
		mark := "⏳"
		switch {
		case v.Result != nil && v.Result.Passed:
			mark = "✅"
		case v.Result != nil:
			mark = "❌"
		case v.Uploaded:
			mark = "❔"
		}
		fmt.Fprintf(&sb, "\n%s %d. %s", mark, i+1, v.Name)
	}
	switch {
	case p.Analyzed:
		sb.WriteString("\n\n🔍 Анализ выполнен, /price покажет расчёт цены.")
	case p.Next == "":
		sb.WriteString("\n\n" + msgAllAccepted)
	default:
		fmt.Fprintf(&sb, "\n\nСледующий ракурс: %s", p.Next)
	}
	return sb.String()
}

func formatAnalysis(a *app.Analysis) string {
	var sb strings.Builder
	if !a.Passed {
		sb.WriteString("❌ Набор фото не принят:")
		for _, r := range a.Reasons {
			sb.WriteString("\n• " + r)
		}
		for _, w := range a.Warnings {
			sb.WriteString("\n⚠️ " + w)
		}
		return sb.String()
	}

	sb.WriteString("✅ Набор фото принят")
	if a.Category != nil {
		fmt.Fprintf(&sb, "\nКатегория: %s", a.Category.Predicted)
	}
	if a.Device != nil && !a.Device.Degraded {
		fmt.Fprintf(&sb, "\nОдно устройство: да (уверенность %s)", a.Device.Confidence)
	}
	for _, w := range a.Warnings {
		sb.WriteString("\n⚠️ " + w)
	}

	if len(a.Findings) == 0 {
		sb.WriteString("\n\n✨ Повреждений не найдено.")
	} else {
		sb.WriteString("\n\n🔧 Найденные повреждения:")
		for _, f := range a.Findings {
			fmt.Fprintf(&sb, "\n• %s (%s)", f.Category(), f.Level())
			if f.Location != "" {
				fmt.Fprintf(&sb, ", %s", f.Location)
			}
			if f.Description != "" {
				fmt.Fprintf(&sb, ": %s", f.Description)
			}
		}
	}
	fmt.Fprintf(&sb, "\n\nОценка состояния: %d/100", a.Condition)
	if len(a.DegradedViews) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Повреждения не проверены автоматически: %s", strings.Join(a.DegradedViews, ", "))
	}
	return sb.String()
}

func formatQuote(q *app.Quote) string {
	r := q.Result
	var sb strings.Builder

	switch {
	case q.Market != nil:
		fmt.Fprintf(&sb, "🏷 Цена нового: %s (%s, найдено предложений: %d, уверенность %s)",
			money(r.BasePrice, r.Currency), q.Market.Source, len(q.Market.Results), percent(q.Market.Confidence))
	default:
		fmt.Fprintf(&sb, "🏷 Цена нового: %s (указана вручную)", money(r.BasePrice, r.Currency))
	}

	fmt.Fprintf(&sb, "\n📉 Возраст %g г.: −%s (%s)", r.Age.Years, percent(r.Age.Rate), money(r.Age.Amount, r.Currency))
	fmt.Fprintf(&sb, "\n🔧 Дефекты: −%s (%s)", percent(r.Defects.Rate), money(r.Defects.Amount, r.Currency))
	if r.Defects.Capped {
		fmt.Fprintf(&sb, ", ограничено с %s", percent(r.Defects.RawRate))
	}
	for _, line := range r.Defects.Breakdown {
		fmt.Fprintf(&sb, "\n   • %s (%s): %s", line.Category, line.Severity, percent(line.Rate))
	}
	fmt.Fprintf(&sb, "\nИтого скидка: %s (%s)", percent(r.TotalRate), money(r.TotalAmount, r.Currency))
	fmt.Fprintf(&sb, "\n\n💰 Рекомендуемая цена: %s", money(r.FinalPrice, r.Currency))

	if q.Report != nil && !q.Report.Degraded {
		if q.Report.English != "" {
			sb.WriteString("\n\n📝 " + q.Report.English)
		}
		if q.Report.Arabic != "" {
			sb.WriteString("\n\n📝 " + q.Report.Arabic)
		}
	}
	return sb.String()
}
