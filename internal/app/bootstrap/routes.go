// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	analyticsfeature "github.com/hiveflow/hiveflow/internal/app/features/analytics"
	announcementsfeature "github.com/hiveflow/hiveflow/internal/app/features/announcements"
	chatfeature "github.com/hiveflow/hiveflow/internal/app/features/chat"
	eventsfeature "github.com/hiveflow/hiveflow/internal/app/features/events"
	filesfeature "github.com/hiveflow/hiveflow/internal/app/features/files"
	healthfeature "github.com/hiveflow/hiveflow/internal/app/features/health"
	invitesfeature "github.com/hiveflow/hiveflow/internal/app/features/invites"
	membersfeature "github.com/hiveflow/hiveflow/internal/app/features/members"
	notificationsfeature "github.com/hiveflow/hiveflow/internal/app/features/notifications"
	profilefeature "github.com/hiveflow/hiveflow/internal/app/features/profile"
	sessionfeature "github.com/hiveflow/hiveflow/internal/app/features/session"
	workspacesfeature "github.com/hiveflow/hiveflow/internal/app/features/workspaces"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/store/oauthstate"
	"github.com/hiveflow/hiveflow/internal/app/system/auth"
	"github.com/hiveflow/hiveflow/internal/app/system/identity"
	"github.com/hiveflow/hiveflow/internal/app/system/mailer"
	"github.com/hiveflow/hiveflow/internal/app/system/membership"
)

// Version is stamped by the build (-ldflags "-X ...bootstrap.Version=v1.2.0").
var Version = "dev"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. HiveFlow wires the session manager,
// the membership resolver, and one router per feature, then mounts them
// under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Shared domain services.
	resolver := membership.NewResolver(deps.Docs, logger)
	provider := identity.NewLocalProvider(deps.Docs, logger)
	notifier := mailer.NewClient(appCfg.MailerAPIURL, appCfg.MailerConfigKey, logger)
	inviter := membership.NewInviter(deps.Docs, provider, notifier, appCfg.BaseURL, logger)
	states := oauthstate.New(deps.Docs)

	var google *identity.GoogleVerifier
	if appCfg.GoogleClientID != "" {
		google = identity.NewGoogleVerifier(
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL+"/api/session/google/callback",
		)
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Docs, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Uploaded files by their unguessable storage keys. The authorized
	// download endpoint lives under /api/files; this mirrors the public
	// file URLs the SPA embeds in content.
	r.Handle("/files/*", fileserver.Handler("/files", appCfg.StorageLocalPath))

	r.Route("/api", func(api chi.Router) {
		// Credential endpoints are brute-forceable; rate-limit by client IP.
		api.Group(func(limited chi.Router) {
			limited.Use(httprate.LimitByIP(20, 1*time.Minute))

			sessionHandler := sessionfeature.NewHandler(
				sessionMgr, provider, google, states, resolver, appCfg.BaseURL, logger)
			limited.Mount("/session", sessionfeature.Routes(sessionHandler))

			inviteHandler := invitesfeature.NewHandler(inviter, resolver, sessionMgr, logger)
			limited.Post("/accept-invite/{token}", inviteHandler.HandleAccept)
			limited.Post("/join/{token}", inviteHandler.HandleJoin)
			limited.Mount("/invites", invitesfeature.Routes(inviteHandler))
		})

		workspacesHandler := workspacesfeature.NewHandler(deps.Docs, resolver, sessionMgr, logger)
		api.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler))

		membersHandler := membersfeature.NewHandler(deps.Docs, resolver, logger)
		api.Mount("/members", membersfeature.Routes(membersHandler))

		announcementsHandler := announcementsfeature.NewHandler(
			deps.Docs, resolver, notifier, appCfg.OwnerEmail, appCfg.BaseURL, logger)
		api.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

		eventsHandler := eventsfeature.NewHandler(deps.Docs, resolver, logger)
		api.Mount("/events", eventsfeature.Routes(eventsHandler))

		// Chat and notification fan-out ride a poll-based change feed
		// on the store.
		feed := docstore.NewPoller(deps.Docs, appCfg.ChatPollInterval, logger)
		chatHandler := chatfeature.NewHandler(deps.Docs, feed, resolver, logger)
		api.Mount("/chat", chatfeature.Routes(chatHandler))

		filesHandler := filesfeature.NewHandler(deps.Docs, deps.Blobs, resolver, logger)
		api.Mount("/files", filesfeature.Routes(filesHandler))

		notificationsHandler := notificationsfeature.NewHandler(deps.Docs, feed, resolver, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

		analyticsHandler := analyticsfeature.NewHandler(deps.Docs, resolver, logger)
		api.Mount("/analytics", analyticsfeature.Routes(analyticsHandler))

		profileHandler := profilefeature.NewHandler(resolver, sessionMgr, logger)
		api.Mount("/profile", profilefeature.Routes(profileHandler))
	})

	return r, nil
}
