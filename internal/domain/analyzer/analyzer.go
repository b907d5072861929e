// Package analyzer defines the contract of the video/pose model and a
// deterministic simulator standing in for it.
package analyzer

import (
	"context"

	"github.com/okian/talentcheck/internal/domain/model"
)

// Keypoint names produced by DetectPose.
const (
	Nose          = "nose"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Frame is a decoded video frame reduced to what pose detection needs.
type Frame struct {
	VideoID    string  `json:"video_id"`
	Index      int     `json:"index"`
	Timestamp  float64 `json:"timestamp"`
	Brightness float64 `json:"brightness"`
	Sharpness  float64 `json:"sharpness"`
}

// Keypoint is one body landmark in normalized image coordinates, y pointing
// down.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Visible    bool    `json:"visible"`
}

// PoseFrame holds the keypoints detected in one frame.
type PoseFrame struct {
	Index     int                 `json:"index"`
	Timestamp float64             `json:"timestamp"`
	Keypoints map[string]Keypoint `json:"keypoints"`
}

// Recognition is the model's guess of which exercise is performed.
type Recognition struct {
	TestType   model.TestType `json:"test_type"`
	Confidence float64        `json:"confidence"`
}

// PoseAnalyzer is the computer-vision collaborator.
type PoseAnalyzer interface {
	// Extract samples frames from the video.
	Extract(ctx context.Context, v model.Video) ([]Frame, error)
	// DetectPose finds body keypoints in each frame.
	DetectPose(ctx context.Context, frames []Frame) ([]PoseFrame, error)
	// Recognize classifies the exercise. expected is a hint, not a guarantee.
	Recognize(ctx context.Context, poses []PoseFrame, expected model.TestType) (Recognition, error)
}
