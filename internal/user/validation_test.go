package user

import "testing"

func TestValidateCreateUserRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr bool
	}{
		{
			name:    "valid",
			req:     CreateUserRequest{Username: "alice", Email: "alice@uni.edu", Password: "Studyh4ll!"},
			wantErr: false,
		},
		{
			name:    "username too short",
			req:     CreateUserRequest{Username: "a", Email: "a@uni.edu", Password: "Studyh4ll!"},
			wantErr: true,
		},
		{
			name:    "username too long",
			req:     CreateUserRequest{Username: "abcdefghijklmnopqrstuvwxyz012", Email: "a@uni.edu", Password: "Studyh4ll!"},
			wantErr: true,
		},
		{
			name:    "missing email",
			req:     CreateUserRequest{Username: "alice", Password: "Studyh4ll!"},
			wantErr: true,
		},
		{
			name:    "email without domain dot",
			req:     CreateUserRequest{Username: "alice", Email: "alice@uni", Password: "Studyh4ll!"},
			wantErr: true,
		},
		{
			name:    "email starting with @",
			req:     CreateUserRequest{Username: "alice", Email: "@uni.edu", Password: "Studyh4ll!"},
			wantErr: true,
		},
		{
			name:    "password too short",
			req:     CreateUserRequest{Username: "alice", Email: "alice@uni.edu", Password: "St4!x"},
			wantErr: true,
		},
		{
			name:    "password missing uppercase",
			req:     CreateUserRequest{Username: "alice", Email: "alice@uni.edu", Password: "studyh4ll!"},
			wantErr: true,
		},
		{
			name:    "password missing digit",
			req:     CreateUserRequest{Username: "alice", Email: "alice@uni.edu", Password: "Studyhall!"},
			wantErr: true,
		},
		{
			name:    "password missing special char",
			req:     CreateUserRequest{Username: "alice", Email: "alice@uni.edu", Password: "Studyh4ll"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCreateUserRequest(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCreateUserRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
