package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"planhub/internal/models"
	"planhub/internal/token"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password assigned to every seeded account.
const DefaultPassword = "Password123!demo"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand

	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) (*Factory, error) {
	gofakeit.Seed(time.Now().UnixNano())

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:           db,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		passwordHash: string(hash),
	}, nil
}

// CreateUser persists a citizen account with generated identity details.
func (f *Factory) CreateUser(i int) (*models.User, error) {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	user := &models.User{
		Username: fmt.Sprintf("%s%s%d", strings.ToLower(first), strings.ToLower(last), i),
		Email:    fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
		Password: f.passwordHash,
		FullName: first + " " + last,
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %d: %w", i, err)
	}
	return user, nil
}

// CreateAdmin persists an administrator account with a fixed login.
func (f *Factory) CreateAdmin(username, email string) (*models.User, error) {
	admin := &models.User{
		Username: username,
		Email:    email,
		Password: f.passwordHash,
		FullName: gofakeit.Name(),
		IsAdmin:  true,
	}
	if err := f.db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

var requestPurposes = []string{
	"Researching zoning restrictions before purchasing a property in the area",
	"Preparing an objection to the proposed development on behalf of residents",
	"Academic research on municipal planning practices",
	"Verifying flood risk classification for an insurance application",
	"Reviewing conservation requirements before renovating a listed building",
	"Assessing environmental impact for a community association",
	"Due diligence for a commercial lease near the transit corridor",
}

// CreateRequest persists a request in the given status. Approved requests get
// a download token; decided requests get review metadata.
func (f *Factory) CreateRequest(requester *models.User, document *models.Document, reviewer *models.User, status models.RequestStatus, window, requestWindow time.Duration) (*models.DocumentRequest, error) {
	urgencies := []models.RequestUrgency{
		models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyUrgent,
	}
	createdAt := time.Now().Add(-time.Duration(f.rng.Intn(30*24)) * time.Hour)

	request := &models.DocumentRequest{
		RequesterID: requester.ID,
		DocumentID:  document.ID,
		Purpose:     requestPurposes[f.rng.Intn(len(requestPurposes))],
		Urgency:     urgencies[f.rng.Intn(len(urgencies))],
		Status:      status,
		CreatedAt:   createdAt,
	}

	switch status {
	case models.RequestStatusApproved:
		processedAt := createdAt.Add(time.Duration(f.rng.Intn(48)) * time.Hour)
		expiresAt := processedAt.Add(requestWindow)
		request.ReviewedByID = &reviewer.ID
		request.ProcessedAt = &processedAt
		request.ExpiresAt = &expiresAt
		request.ReviewNotes = "Approved after identity verification"
	case models.RequestStatusRejected:
		processedAt := createdAt.Add(time.Duration(f.rng.Intn(48)) * time.Hour)
		request.ReviewedByID = &reviewer.ID
		request.ProcessedAt = &processedAt
		request.ReviewNotes = "Insufficient justification for access to a restricted document"
	}

	if err := f.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if status == models.RequestStatusApproved {
		downloadToken := &models.DownloadToken{
			Token:     token.Generate(),
			RequestID: request.ID,
			ExpiresAt: request.ProcessedAt.Add(window),
		}
		if err := f.db.Create(downloadToken).Error; err != nil {
			return nil, fmt.Errorf("create token: %w", err)
		}
	}

	return request, nil
}
