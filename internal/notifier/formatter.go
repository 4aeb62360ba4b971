package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TokenArena/internal/model"
	"TokenArena/internal/recorder"

	"github.com/shopspring/decimal"
)

// Participant-facing texts are plain Markdown comments on the platform.

// FormatChallengeBody is the body of a round's challenge post.
func FormatChallengeBody(prize decimal.Decimal, window time.Duration) string {
	return fmt.Sprintf("🏆 %s tokens to the winner\n\n⏱️ %s to respond\n🗳 Most upvoted comment wins\n\n"+
		"Include your Base wallet in your entry.\n\nLet the agents decide.",
		prize, humanDuration(window))
}

// FormatNoEntries announces a round nobody entered.
func FormatNoEntries() string {
	return "No entries received. The arena remains quiet... for now."
}

// FormatNoValidWallet announces a round where no entry carried a wallet.
func FormatNoValidWallet() string {
	return "No valid wallets found in any entries. Prize pool rolls over."
}

// FormatWinner announces a paid winner with a link to the transfer.
func FormatWinner(winner model.Entry, prize decimal.Decimal, txURL string) string {
	return fmt.Sprintf("🏆 WINNER: %s\n\n👑 %d upvotes\n💰 %s tokens sent\n🔗 [View transaction](%s)\n\nThe agents have spoken.",
		mention(winner), winner.Score, prize, txURL)
}

// FormatPayoutFailed announces the winner of a round whose transfer failed.
// A non-empty pendingTxURL means the transfer was submitted but not confirmed
// in time, so no manual payment is promised.
func FormatPayoutFailed(winner model.Entry, pendingTxURL string) string {
	if pendingTxURL != "" {
		return fmt.Sprintf("🏆 WINNER: %s\n\n👑 %d upvotes\n⏳ Token transfer pending confirmation: [View transaction](%s)\n\nAn admin is checking it.",
			mention(winner), winner.Score, pendingTxURL)
	}
	return fmt.Sprintf("🏆 WINNER: %s\n\n👑 %d upvotes\n⚠️ Token transfer failed. An admin will send the prize manually.",
		mention(winner), winner.Score)
}

// FormatMaintenance is posted when a round could not be judged.
func FormatMaintenance() string {
	return "⚠️ Arena Maintenance: Judge bot encountered an error. Round under review."
}

// TxURL renders the explorer link for hash from a template holding one %s.
func TxURL(template, hash string) string {
	if !strings.Contains(template, "%s") {
		return template + hash
	}
	return fmt.Sprintf(template, hash)
}

func mention(e model.Entry) string {
	if e.AuthorName == "" {
		return "anonymous agent"
	}
	return "@" + e.AuthorName
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Operator alerts use Telegram HTML.

// FormatPayoutAlert tells the operator a winner needs a manual transfer.
func FormatPayoutAlert(r *model.Round, prize decimal.Decimal) string {
	var b strings.Builder
	if r.Payout != nil && r.Payout.TxHash != "" {
		b.WriteString("⏳ <b>Payout pending, do not resend</b>\n\n")
	} else {
		b.WriteString("🚨 <b>Payout failed</b>\n\n")
	}
	b.WriteString(fmt.Sprintf("Round: <code>%s</code>\n", r.ID))
	b.WriteString(fmt.Sprintf("Post: <code>%s</code>\n", html.EscapeString(r.PostID)))
	if r.Winner != nil {
		b.WriteString(fmt.Sprintf("Winner: %s (%d upvotes)\n", html.EscapeString(mention(*r.Winner)), r.Winner.Score))
		b.WriteString(fmt.Sprintf("Wallet: <code>%s</code>\n", r.Winner.Wallet))
	}
	b.WriteString(fmt.Sprintf("Amount: %s\n", prize))
	if r.Payout != nil && r.Payout.TxHash != "" {
		b.WriteString(fmt.Sprintf("Tx: <code>%s</code>\n", r.Payout.TxHash))
	}
	if r.Payout != nil && r.Payout.Err != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(r.Payout.Err)))
	}
	return b.String()
}

// FormatCrashAlert tells the operator a round ended in maintenance.
func FormatCrashAlert(r *model.Round) string {
	var b strings.Builder
	b.WriteString("⚠️ <b>Round crashed</b>\n\n")
	b.WriteString(fmt.Sprintf("Round: <code>%s</code>\n", r.ID))
	if r.PostID != "" {
		b.WriteString(fmt.Sprintf("Post: <code>%s</code>\n", html.EscapeString(r.PostID)))
	}
	b.WriteString(fmt.Sprintf("Maintenance comment posted: %v\n", r.Announced))
	if r.Err != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(r.Err)))
	}
	return b.String()
}

// FormatRoundHistory renders recent rounds for the /status command.
func FormatRoundHistory(rows []recorder.RoundRow, running bool) string {
	var b strings.Builder
	b.WriteString("📊 <b>Arena status</b>\n\n")
	if running {
		b.WriteString("A round is in progress.\n\n")
	}
	if len(rows) == 0 {
		b.WriteString("No finished rounds yet.")
		return b.String()
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("• %s <b>%s</b> [%s]", r.FinishedAt.Format("2006-01-02 15:04"), r.Outcome, r.Category))
		if r.WinnerName != "" {
			b.WriteString(fmt.Sprintf(" @%s (%d)", html.EscapeString(r.WinnerName), r.Score))
		}
		if r.TxHash != "" {
			b.WriteString(fmt.Sprintf(" tx <code>%s</code>", r.TxHash))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatBalance renders the signer balance for the /balance command.
func FormatBalance(signer string, balance, prize decimal.Decimal) string {
	rounds := decimal.Zero
	if prize.IsPositive() {
		rounds = balance.Div(prize).Floor()
	}
	return fmt.Sprintf("💰 <b>Prize wallet</b>\n\nAddress: <code>%s</code>\nBalance: %s tokens\nCovers %s more rounds",
		signer, balance, rounds)
}
