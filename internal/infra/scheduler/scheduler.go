package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"yearbook_alumni/internal/app" // For AlumniEngine interface
	domainTelegram "yearbook_alumni/internal/domain/telegram"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const digestTimeout = 1 * time.Minute

// ReviewDigestScheduler periodically tells moderators how many alumni
// requests have been waiting too long for review. It only reads; blocks and
// rate limits are never swept.
type ReviewDigestScheduler struct {
	cronEngine      *cron.Cron
	engine          app.AlumniEngine
	telegramClient  domainTelegram.Client
	moderatorChatID int64
	cronSpec        string
	minAge          time.Duration
	logger          *logrus.Entry
}

func NewReviewDigestScheduler(
	engine app.AlumniEngine,
	tc domainTelegram.Client,
	moderatorChatID int64,
	cronSpec string, // e.g., "0 9 * * *" (9 AM daily)
	minAge time.Duration,
	logger *logrus.Entry,
) *ReviewDigestScheduler {
	return &ReviewDigestScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		engine:          engine,
		telegramClient:  tc,
		moderatorChatID: moderatorChatID,
		cronSpec:        cronSpec,
		minAge:          minAge,
		logger:          logger.WithField("component", "review_digest"),
	}
}

func (s *ReviewDigestScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for review digest.")
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if err := s.RunDigest(ctx); err != nil {
			s.logger.WithError(err).Error("Review digest failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add review digest cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Review digest scheduler started")
	return nil
}

// RunDigest sends one digest. Nothing is sent when no request is overdue.
func (s *ReviewDigestScheduler) RunDigest(ctx context.Context) error {
	requests, err := s.engine.ListPendingRequests(ctx, s.minAge)
	if err != nil {
		return fmt.Errorf("failed to list pending alumni requests: %w", err)
	}
	if len(requests) == 0 {
		s.logger.Debug("No overdue alumni requests")
		return nil
	}

	perSchool := make(map[int64]int)
	for _, r := range requests {
		perSchool[r.SchoolID]++
	}
	text := formatDigest(len(requests), perSchool, s.minAge)

	if err := s.telegramClient.SendMessage(s.moderatorChatID, text, nil); err != nil {
		return fmt.Errorf("failed to send review digest: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"overdue": len(requests), "schools": len(perSchool)}).Info("Review digest sent")
	return nil
}

func (s *ReviewDigestScheduler) Stop() {
	s.logger.Info("Stopping review digest scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Review digest scheduler stopped.")
}

func formatDigest(total int, perSchool map[int64]int, minAge time.Duration) string {
	schoolIDs := make([]int64, 0, len(perSchool))
	for id := range perSchool {
		schoolIDs = append(schoolIDs, id)
	}
	sort.Slice(schoolIDs, func(i, j int) bool { return schoolIDs[i] < schoolIDs[j] })

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d alumni request(s) have been waiting more than %s for review:\n", total, minAge))
	for _, id := range schoolIDs {
		b.WriteString(fmt.Sprintf("School %d: %d pending (/pending %d)\n", id, perSchool[id], id))
	}
	return b.String()
}
