package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"time"

	"campusportal/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// Portal roles. Staff manage definitions; students and parents read feeds
// and record interactions.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleStaff   = "staff"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email" validate:"required,email"`
	Password  string    `db:"password" json:"-" validate:"required,password"`
	Role      string    `db:"role" json:"role"`
	StudentID string    `db:"student_id" json:"student_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
	Role      string `json:"role"`
	StudentID string `json:"student_id"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func validRole(role string) bool {
	return role == RoleStudent || role == RoleParent || role == RoleStaff
}

func CreateUser(email, password, role, studentID string) (*User, error) {
	if role == "" {
		role = RoleStudent
	}
	if !validRole(role) {
		return nil, errors.New("invalid role")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
		StudentID: studentID,
	}

	err = db.DB.QueryRow(`
		INSERT INTO users (email, password, role, student_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, email, hashedPassword, role, studentID).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

func GetUserByEmail(email string) (*User, error) {
	user := &User{}
	err := db.DB.Get(user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, errors.New("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GenerateToken(user *User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"email":      user.Email,
		"role":       user.Role,
		"student_id": user.StudentID,
		"exp":        time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key" // Use this only for development
	}

	return token.SignedString([]byte(secret))
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is required"})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format"})
		}

		tokenString := authHeader[7:]
		if tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format"})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}

			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				secret = "your-secret-key"
			}

			return []byte(secret), nil
		})

		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
			userID := int64(claims["user_id"].(float64))
			c.Set("user_id", userID)

			if email, ok := claims["email"].(string); ok {
				c.Set("email", email)
			}
			if role, ok := claims["role"].(string); ok {
				c.Set("role", role)
			}
			if studentID, ok := claims["student_id"].(string); ok {
				c.Set("student_id", studentID)
			}
			return next(c)
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	}
}

// RequireStaff gates definition management behind the staff role.
func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != RoleStaff {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Staff access required"})
		}
		return next(c)
	}
}
