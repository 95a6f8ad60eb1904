package kube

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// Object is a simplified representation of a Kubernetes object.
// Each object has kind, which designates the type of the entity it represents.
// Objects have names and many of them live in namespaces.
type Object struct {
	Kind      Kind
	Name      string
	Namespace string
}

func (o Object) String() string {
	return fmt.Sprintf("%s %s/%s", o.Kind, o.Namespace, o.Name)
}

// Kind represents the type of a Kubernetes Object.
type Kind string

const (
	KindDeployment Kind = "Deployment"
)

// GetContainerImagesFromPodSpec returns container image references from
// the specified v1.PodSpec in the order containers are declared. Init and
// ephemeral containers are not included.
func GetContainerImagesFromPodSpec(spec corev1.PodSpec) []string {
	images := make([]string, 0, len(spec.Containers))
	for _, container := range spec.Containers {
		images = append(images, container.Image)
	}
	return images
}
