package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authUseCase "github.com/allisson/careportal/internal/auth/usecase"
)

// RunCreateUser creates an already verified portal user with an explicit role.
// The password is read from the input when it is not passed as a flag, so it does
// not end up in shell history. Outputs the new user in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	userUseCase authUseCase.UserUseCase,
	logger *slog.Logger,
	username string,
	email string,
	password string,
	role string,
	format string,
	streams IOTuple,
) error {
	logger.Info("creating new user", slog.String("username", username))

	userRole := authDomain.RoleSuperAdmin
	if role != "" {
		userRole = authDomain.Role(role)
	}
	if !userRole.IsValid() {
		return fmt.Errorf("invalid role: %s (valid options: %s, %s)",
			role, authDomain.RoleSuperAdmin, authDomain.RoleAdmin)
	}

	if password == "" {
		var err error
		password, err = promptForPassword(streams)
		if err != nil {
			return fmt.Errorf("failed to get password: %w", err)
		}
	}

	user, err := userUseCase.CreateUser(ctx, &authDomain.CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     userRole,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		if err := outputJSON(user, streams.Writer); err != nil {
			return err
		}
	} else {
		outputText(user, streams.Writer)
	}

	logger.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	return nil
}

func promptForPassword(streams IOTuple) (string, error) {
	reader := bufio.NewReader(streams.Reader)

	_, _ = fmt.Fprint(streams.Writer, "Enter password: ")
	password, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || password == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// outputText outputs the result in human-readable text format.
func outputText(user *authDomain.User, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nUser created successfully!")
	_, _ = fmt.Fprintf(writer, "User ID: %s\n", user.ID.String())
	_, _ = fmt.Fprintf(writer, "Username: %s\n", user.Username)
	_, _ = fmt.Fprintf(writer, "Role: %s\n", user.Role)
}

type createUserOutput struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func outputJSON(user *authDomain.User, writer io.Writer) error {
	return writeJSON(writer, createUserOutput{
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     string(user.Role),
	})
}
