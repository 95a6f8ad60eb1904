package kube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aquasecurity/starboard-gate/pkg/ext"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes"
)

const DefaultKubectlExecutable = "kubectl"

// ErrMalformedDeployment is returned when a Deployment manifest does not
// have the expected structure.
var ErrMalformedDeployment = errors.New("malformed deployment")

// DeploymentInspector returns container image references of a Deployment.
type DeploymentInspector interface {
	// GetContainerImages returns images of spec.template.spec.containers
	// in manifest order.
	GetContainerImages(ctx context.Context, deployment Object) ([]string, error)
}

// KubectlInspector fetches Deployment manifests by running
// `kubectl get deployments NAME -n NAMESPACE -o json`.
type KubectlInspector struct {
	runner      ext.CommandRunner
	executable  string
	globalFlags []string
}

// NewKubectlInspector constructs a KubectlInspector. If executable is
// blank, kubectl is looked up in PATH. The globalFlags, such as
// --context=prod, are put in front of the get subcommand.
func NewKubectlInspector(runner ext.CommandRunner, executable string, globalFlags ...string) *KubectlInspector {
	if executable == "" {
		executable = DefaultKubectlExecutable
	}
	return &KubectlInspector{
		runner:      runner,
		executable:  executable,
		globalFlags: globalFlags,
	}
}

func (i *KubectlInspector) GetContainerImages(ctx context.Context, deployment Object) ([]string, error) {
	args := make([]string, 0, len(i.globalFlags)+7)
	args = append(args, i.globalFlags...)
	args = append(args,
		"get", "deployments", deployment.Name,
		"-n", deployment.Namespace,
		"-o", "json")
	out, err := i.runner.Run(ctx, i.executable, args...)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", deployment, err)
	}
	images, err := ContainerImagesFromJSON(out)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", deployment, err)
	}
	return images, nil
}

// ContainerImagesFromJSON extracts spec.template.spec.containers[*].image
// from a Deployment manifest encoded as JSON.
func ContainerImagesFromJSON(data []byte) ([]string, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	containers, found, err := unstructured.NestedSlice(obj, "spec", "template", "spec", "containers")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDeployment, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: spec.template.spec.containers not found", ErrMalformedDeployment)
	}
	images := make([]string, 0, len(containers))
	for i, c := range containers {
		container, ok := c.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: containers[%d] is %T, not an object", ErrMalformedDeployment, i, c)
		}
		image, found, err := unstructured.NestedString(container, "image")
		if err != nil {
			return nil, fmt.Errorf("%w: containers[%d]: %v", ErrMalformedDeployment, i, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: containers[%d].image not found", ErrMalformedDeployment, i)
		}
		images = append(images, image)
	}
	return images, nil
}

// ClientsetInspector gets Deployments from the API server with client-go.
type ClientsetInspector struct {
	clientset kubernetes.Interface
}

func NewClientsetInspector(clientset kubernetes.Interface) *ClientsetInspector {
	return &ClientsetInspector{
		clientset: clientset,
	}
}

func (i *ClientsetInspector) GetContainerImages(ctx context.Context, deployment Object) ([]string, error) {
	d, err := i.clientset.AppsV1().Deployments(deployment.Namespace).Get(ctx, deployment.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", deployment, err)
	}
	return GetContainerImagesFromPodSpec(d.Spec.Template.Spec), nil
}
