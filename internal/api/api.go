package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/codes"

	"github.com/osamahm/biosphere/internal/bank"
	"github.com/osamahm/biosphere/internal/domain"
	"github.com/osamahm/biosphere/internal/errors"
	"github.com/osamahm/biosphere/internal/event"
	"github.com/osamahm/biosphere/internal/game"
	"github.com/osamahm/biosphere/internal/identity"
	"github.com/osamahm/biosphere/internal/leaderboard"
	"github.com/osamahm/biosphere/internal/record"
)

type Config struct {
	Router       *gin.Engine
	EventBus     *event.Bus
	Game         *game.Service
	Bank         *bank.Service
	Identity     *identity.Service
	Record       *record.Service
	Leaderboard  *leaderboard.Service
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	gs *game.Service
	bs *bank.Service
	is *identity.Service
	rs *record.Service
	ls *leaderboard.Service

	redis  Redis
	prefix string
	hub    *hub
}

func New(c Config) *API {
	a := &API{
		gs:     c.Game,
		bs:     c.Bank,
		is:     c.Identity,
		rs:     c.Record,
		ls:     c.Leaderboard,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
		hub:    newHub(),
	}

	v1 := c.Router.Group("/v1")
	{
		v1.POST("/students/login", a.studentLogin)
		v1.POST("/teachers/login", a.teacherLogin)

		v1.POST("/sessions", a.createSession)
		v1.GET("/sessions", a.listSessions)
		v1.GET("/sessions/:id", a.getSession)

		v1.GET("/sessions/:id/state", a.getState)
		v1.POST("/sessions/:id/start", a.startGame)
		v1.POST("/sessions/:id/spheres/:sphere/start", a.startSphere)
		v1.POST("/sessions/:id/answers", a.answerQuestion)
		v1.POST("/sessions/:id/advance", a.advance)
		v1.POST("/sessions/:id/spheres/:sphere/complete", a.completeSphere)
		v1.POST("/sessions/:id/complete", a.completeGame)
		v1.POST("/sessions/:id/reset", a.resetGame)
		v1.POST("/sessions/:id/responses", a.recordResponse)

		v1.GET("/questions", a.listQuestions)
		v1.POST("/questions", a.createQuestion)
		v1.PATCH("/questions/:id", a.updateQuestion)
		v1.DELETE("/questions/:id", a.deleteQuestion)

		v1.GET("/leaderboard", a.getLeaderboard)
		v1.GET("/leaderboard/ws", a.serveLeaderboardWS)
	}

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
	})

	return a
}

func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.JSON(e.HTTPStatusCode(), gin.H{"error": gin.H{
		"code":    codes.Code(e.Code).String(),
		"message": e.Message,
	}})
}

// --- identity ---

type studentLoginRequest struct {
	StudentNumber string `json:"student_number"`
	StudentName   string `json:"student_name"`
}

type studentResponse struct {
	ID            int64  `json:"id"`
	StudentNumber string `json:"student_number"`
	StudentName   string `json:"student_name"`
}

func (a *API) studentLogin(c *gin.Context) {
	var req studentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	st, err := a.is.StudentLogin(c.Request.Context(), identity.StudentLoginRequest{
		StudentNumber: req.StudentNumber,
		StudentName:   req.StudentName,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{"student": studentResponse{
		ID:            st.ID,
		StudentNumber: st.StudentNumber,
		StudentName:   st.Name,
	}})
}

type teacherLoginRequest struct {
	TeacherCode string `json:"teacher_code"`
	Password    string `json:"password"`
}

func (a *API) teacherLogin(c *gin.Context) {
	var req teacherLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	t, err := a.is.TeacherLogin(c.Request.Context(), identity.TeacherLoginRequest{
		TeacherCode: req.TeacherCode,
		Password:    req.Password,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{"teacher": gin.H{
		"id":           t.ID,
		"teacher_code": t.Code,
		"teacher_name": t.Name,
	}})
}

// --- sessions ---

type createSessionRequest struct {
	StudentID int64 `json:"student_id"`
}

type sessionResponse struct {
	SessionID        string     `json:"session_id"`
	StudentID        int64      `json:"student_id"`
	TotalScore       int        `json:"total_score"`
	CompletedSpheres int        `json:"completed_spheres"`
	Completed        bool       `json:"completed"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	CreateTime       time.Time  `json:"create_time"`
}

func toSessionResponse(s domain.GameSession) sessionResponse {
	resp := sessionResponse{
		SessionID:        s.SessionID,
		StudentID:        s.StudentID,
		TotalScore:       s.TotalScore,
		CompletedSpheres: s.CompletedSpheres,
		Completed:        s.Completed,
		StartTime:        s.StartTime,
		CreateTime:       s.CreateTime,
	}
	if !s.EndTime.IsZero() {
		resp.EndTime = &s.EndTime
	}
	return resp
}

func (a *API) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	s, err := a.rs.CreateSession(c.Request.Context(), record.CreateSessionRequest{
		StudentID: req.StudentID,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(201, gin.H{"session": toSessionResponse(*s)})
}

func (a *API) listSessions(c *gin.Context) {
	var req record.ListSessionsRequest
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			renderError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid student_id: %q", raw)))
			return
		}
		req.StudentID = &id
	}

	summaries, err := a.rs.ListSessions(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}

	out := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, gin.H{
			"session":             toSessionResponse(s.Session),
			"questions_attempted": s.QuestionsAttempted,
			"correct_answers":     s.CorrectAnswers,
			"accuracy":            s.Accuracy.StringFixed(4),
		})
	}

	c.JSON(200, gin.H{"sessions": out})
}

type sphereResultResponse struct {
	Sphere             string    `json:"sphere"`
	QuestionsAttempted int       `json:"questions_attempted"`
	CorrectAnswers     int       `json:"correct_answers"`
	SphereScore        int       `json:"sphere_score"`
	CompleteTime       time.Time `json:"complete_time"`
}

func toSphereResultResponse(r domain.SphereResult) sphereResultResponse {
	return sphereResultResponse{
		Sphere:             r.Sphere.String(),
		QuestionsAttempted: r.QuestionsAttempted,
		CorrectAnswers:     r.CorrectAnswers,
		SphereScore:        r.SphereScore,
		CompleteTime:       r.CompleteTime,
	}
}

func (a *API) getSession(c *gin.Context) {
	d, err := a.rs.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	results := make([]sphereResultResponse, 0, len(d.Results))
	for _, r := range d.Results {
		results = append(results, toSphereResultResponse(r))
	}

	responses := make([]gin.H, 0, len(d.Responses))
	for _, r := range d.Responses {
		responses = append(responses, gin.H{
			"question_id":      r.QuestionID,
			"sphere":           r.Sphere.String(),
			"selected_index":   r.SelectedIndex,
			"is_correct":       r.IsCorrect,
			"response_time_ms": r.ResponseTimeMs,
			"create_time":      r.CreateTime,
		})
	}

	c.JSON(200, gin.H{
		"session":   toSessionResponse(d.Session),
		"results":   results,
		"responses": responses,
	})
}

// --- game flow ---

type gameStateResponse struct {
	PlayerName       string         `json:"player_name"`
	ActiveSphere     string         `json:"active_sphere,omitempty"`
	Position         int            `json:"position"`
	Score            int            `json:"score"`
	CompletedSpheres []string       `json:"completed_spheres"`
	SphereScores     map[string]int `json:"sphere_scores"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
}

func toGameStateResponse(s game.Session) gameStateResponse {
	resp := gameStateResponse{
		PlayerName:       s.PlayerName,
		ActiveSphere:     s.ActiveSphere.String(),
		Position:         s.Position,
		Score:            s.Score,
		CompletedSpheres: make([]string, 0, len(s.Progress)),
		SphereScores:     make(map[string]int, len(s.Progress)),
	}
	for _, sp := range domain.Spheres() {
		if p := s.Progress[sp]; p.Completed {
			resp.CompletedSpheres = append(resp.CompletedSpheres, sp.String())
			resp.SphereScores[sp.String()] = p.Score
		}
	}
	if !s.StartedAt.IsZero() {
		resp.StartedAt = &s.StartedAt
	}
	if !s.EndedAt.IsZero() {
		resp.EndedAt = &s.EndedAt
	}
	return resp
}

func (a *API) getState(c *gin.Context) {
	s, err := a.gs.GetState(c.Request.Context(), game.GetStateRequest{
		SessionID: c.Param("id"),
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(200, gin.H{"state": toGameStateResponse(s)})
}

type startGameRequest struct {
	PlayerName string `json:"player_name"`
}

func (a *API) startGame(c *gin.Context) {
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	s, err := a.gs.StartGame(c.Request.Context(), game.StartGameRequest{
		SessionID:  c.Param("id"),
		PlayerName: req.PlayerName,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(200, gin.H{"state": toGameStateResponse(s)})
}

type questionResponse struct {
	ID      string   `json:"id"`
	Sphere  string   `json:"sphere"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Context string   `json:"context,omitempty"`
}

func (a *API) startSphere(c *gin.Context) {
	sphere := domain.Sphere(c.Param("sphere"))

	s, err := a.gs.StartSphere(c.Request.Context(), game.StartSphereRequest{
		SessionID: c.Param("id"),
		Sphere:    sphere,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	// Ship the sphere's questions with the transition so the client renders
	// without a second round trip. Answer keys stay server-side.
	qs, err := a.bs.QuestionsBySphere(c.Request.Context(), sphere)
	if err != nil {
		renderError(c, err)
		return
	}
	questions := make([]questionResponse, 0, len(qs))
	for _, q := range qs {
		questions = append(questions, questionResponse{
			ID:      q.ID,
			Sphere:  q.Sphere.String(),
			Prompt:  q.Prompt,
			Options: q.Options,
			Context: q.Context,
		})
	}

	c.JSON(200, gin.H{
		"state":     toGameStateResponse(s),
		"questions": questions,
	})
}

type answerQuestionRequest struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex *int   `json:"selected_index"`
}

func (a *API) answerQuestion(c *gin.Context) {
	var req answerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}
	if req.SelectedIndex == nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("selected_index is required")))
		return
	}

	resp, err := a.gs.AnswerQuestion(c.Request.Context(), game.AnswerQuestionRequest{
		SessionID:     c.Param("id"),
		QuestionID:    req.QuestionID,
		SelectedIndex: *req.SelectedIndex,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"correct":       resp.Correct,
		"correct_index": resp.CorrectIndex,
		"explanation":   resp.Explanation,
		"score":         resp.Score,
	})
}

func (a *API) advance(c *gin.Context) {
	resp, err := a.gs.Advance(c.Request.Context(), game.AdvanceRequest{
		SessionID: c.Param("id"),
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(200, gin.H{
		"position":        resp.Position,
		"sphere_finished": resp.SphereFinished,
	})
}

func (a *API) completeSphere(c *gin.Context) {
	r, err := a.gs.CompleteSphere(c.Request.Context(), game.CompleteSphereRequest{
		SessionID: c.Param("id"),
		Sphere:    domain.Sphere(c.Param("sphere")),
	})
	if err != nil {
		renderError(c, err)
		return
	}

	if err := a.rs.RecordSphereResult(c.Request.Context(), *r); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{"result": toSphereResultResponse(*r)})
}

func (a *API) completeGame(c *gin.Context) {
	report, err := a.gs.CompleteGame(c.Request.Context(), game.CompleteGameRequest{
		SessionID: c.Param("id"),
	})
	if err != nil {
		renderError(c, err)
		return
	}

	results := make([]sphereResultResponse, 0, len(report.SphereResults))
	for _, r := range report.SphereResults {
		results = append(results, toSphereResultResponse(r))
	}

	c.JSON(200, gin.H{"report": gin.H{
		"session_id":        report.SessionID,
		"player_name":       report.PlayerName,
		"final_score":       report.FinalScore,
		"completed_spheres": report.CompletedSpheres,
		"tier":              report.Tier,
		"sphere_results":    results,
		"start_time":        report.StartTime,
		"end_time":          report.EndTime,
	}})
}

func (a *API) resetGame(c *gin.Context) {
	if err := a.gs.Reset(c.Request.Context(), game.ResetRequest{
		SessionID: c.Param("id"),
	}); err != nil {
		renderError(c, err)
		return
	}
	c.Status(204)
}

type recordResponseRequest struct {
	QuestionID     string `json:"question_id"`
	Sphere         string `json:"sphere"`
	SelectedIndex  *int   `json:"selected_index"`
	IsCorrect      bool   `json:"is_correct"`
	ResponseTimeMs int    `json:"response_time_ms"`
}

func (a *API) recordResponse(c *gin.Context) {
	var req recordResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	selected := -1
	if req.SelectedIndex != nil {
		selected = *req.SelectedIndex
	}

	err := a.rs.RecordResponse(c.Request.Context(), domain.QuestionResponse{
		SessionID:      c.Param("id"),
		QuestionID:     req.QuestionID,
		Sphere:         domain.Sphere(req.Sphere),
		SelectedIndex:  selected,
		IsCorrect:      req.IsCorrect,
		ResponseTimeMs: req.ResponseTimeMs,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.Status(204)
}

// --- questions ---

func (a *API) listQuestions(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		qs  []domain.Question
		err error
	)
	if raw := c.Query("sphere"); raw != "" {
		sphere := domain.Sphere(raw)
		if !sphere.Valid() {
			renderError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("unknown sphere: %q", raw)))
			return
		}
		qs, err = a.bs.QuestionsBySphere(ctx, sphere)
	} else {
		qs, err = a.bs.AllQuestions(ctx)
	}
	if err != nil {
		renderError(c, err)
		return
	}

	out := make([]gin.H, 0, len(qs))
	for _, q := range qs {
		out = append(out, gin.H{
			"id":            q.ID,
			"sphere":        q.Sphere.String(),
			"prompt":        q.Prompt,
			"options":       q.Options,
			"correct_index": q.CorrectIndex,
			"explanation":   q.Explanation,
			"context":       q.Context,
		})
	}
	c.JSON(200, gin.H{"questions": out})
}

type createQuestionRequest struct {
	ID           string   `json:"id"`
	Sphere       string   `json:"sphere"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Context      string   `json:"context"`
}

func (a *API) createQuestion(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	err := a.bs.CreateQuestion(c.Request.Context(), bank.CreateQuestionRequest{
		ID:           req.ID,
		Sphere:       domain.Sphere(req.Sphere),
		Prompt:       req.Prompt,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
		Explanation:  req.Explanation,
		Context:      req.Context,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.Status(201)
}

type updateQuestionRequest struct {
	Prompt       *string  `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Explanation  *string  `json:"explanation"`
	Context      *string  `json:"context"`
}

func (a *API) updateQuestion(c *gin.Context) {
	var req updateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	err := a.bs.UpdateQuestion(c.Request.Context(), bank.UpdateQuestionRequest{
		ID:           c.Param("id"),
		Prompt:       req.Prompt,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
		Explanation:  req.Explanation,
		Context:      req.Context,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.Status(204)
}

func (a *API) deleteQuestion(c *gin.Context) {
	if err := a.bs.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.Status(204)
}

// --- leaderboard ---

func (a *API) getLeaderboard(c *gin.Context) {
	var limit int
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			renderError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid limit: %q", raw)))
			return
		}
		limit = n
	}

	l, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{
		Limit: limit,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(200, gin.H{"leaderboard": toLeaderboardPayload(*l)})
}
